// Package filter decides which new activity records are worth a notification.
// Records rejected here still advance the wallet cursor; filtering only
// suppresses delivery.
package filter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/brojonat/polywatch/service/polymarket"
	"github.com/itchyny/gojq"
)

// Filter matches activity records against an optional condition-id allow list
// and a set of jq predicates. The zero value matches everything.
type Filter struct {
	conditionIDs map[string]struct{}
	exprs        []string
	codes        []*gojq.Code
}

// New compiles a filter. An invalid jq expression is a configuration error.
func New(conditionIDs []string, jqExprs []string) (*Filter, error) {
	f := &Filter{}

	if len(conditionIDs) > 0 {
		f.conditionIDs = make(map[string]struct{}, len(conditionIDs))
		for _, id := range conditionIDs {
			f.conditionIDs[strings.ToLower(id)] = struct{}{}
		}
	}

	for _, expr := range jqExprs {
		query, err := gojq.Parse(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jq filter %q: %w", expr, err)
		}
		code, err := gojq.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile jq filter %q: %w", expr, err)
		}
		f.exprs = append(f.exprs, expr)
		f.codes = append(f.codes, code)
	}

	return f, nil
}

// Empty reports whether the filter accepts every record.
func (f *Filter) Empty() bool {
	return f == nil || (len(f.conditionIDs) == 0 && len(f.codes) == 0)
}

// Match reports whether a passes every configured check.
func (f *Filter) Match(a polymarket.Activity) bool {
	if f.Empty() {
		return true
	}

	if len(f.conditionIDs) > 0 {
		if _, ok := f.conditionIDs[strings.ToLower(a.ConditionID)]; !ok {
			return false
		}
	}

	if len(f.codes) == 0 {
		return true
	}

	doc, err := toJQInput(a)
	if err != nil {
		return false
	}

	for _, code := range f.codes {
		ok, err := Eval(code, doc)
		if err != nil || !ok {
			return false
		}
	}

	return true
}

// Eval runs code against input and reports whether its first result is truthy.
// A query that yields nothing is false.
func Eval(code *gojq.Code, input any) (bool, error) {
	iter := code.Run(input)
	v, ok := iter.Next()
	if !ok {
		return false, nil
	}
	if err, isErr := v.(error); isErr {
		return false, err
	}
	return IsTruthy(v), nil
}

// IsTruthy applies jq truthiness: only false and null are false.
func IsTruthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

// toJQInput converts an activity into the generic JSON shape gojq expects.
// Decimal amounts are exposed as numbers so comparisons like `.usdcSize > 100`
// work.
func toJQInput(a polymarket.Activity) (map[string]any, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	for _, key := range []string{"size", "price", "usdcSize"} {
		if s, ok := doc[key].(string); ok {
			if n, err := strconv.ParseFloat(s, 64); err == nil {
				doc[key] = n
			}
		}
	}
	doc["value"], _ = a.Value().Float64()

	return doc, nil
}
