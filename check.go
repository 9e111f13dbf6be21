// check.go: Validators applied to candidate values before commit
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package rcfg

import (
	"cmp"
	"fmt"
	"regexp"
	"strings"
)

// Validator checks a candidate value. Failures should be created with
// Invalid so the message is reported as is.
type Validator[T any] interface {
	Check(v T) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc[T any] func(v T) error

func (f ValidatorFunc[T]) Check(v T) error { return f(v) }

// Bounds requires lo <= v <= hi.
func Bounds[T cmp.Ordered](lo, hi T) Validator[T] {
	return ValidatorFunc[T](func(v T) error {
		if v < lo || v > hi {
			return Invalid(fmt.Sprintf("should be in bounds [%v;%v]", lo, hi))
		}
		return nil
	})
}

// LowerBound requires v >= lo.
func LowerBound[T cmp.Ordered](lo T) Validator[T] {
	return ValidatorFunc[T](func(v T) error {
		if v < lo {
			return Invalid(fmt.Sprintf("should be >= %v", lo))
		}
		return nil
	})
}

// UpperBound requires v <= hi.
func UpperBound[T cmp.Ordered](hi T) Validator[T] {
	return ValidatorFunc[T](func(v T) error {
		if v > hi {
			return Invalid(fmt.Sprintf("should be <= %v", hi))
		}
		return nil
	})
}

// NotEmpty rejects empty strings.
func NotEmpty[T ~string]() Validator[T] {
	return ValidatorFunc[T](func(v T) error {
		if len(v) == 0 {
			return Invalid("should be not empty")
		}
		return nil
	})
}

func NotEmptySlice[E any]() Validator[[]E] {
	return ValidatorFunc[[]E](func(v []E) error {
		if len(v) == 0 {
			return Invalid("should be not empty")
		}
		return nil
	})
}

func NotEmptyMap[K comparable, V any]() Validator[map[K]V] {
	return ValidatorFunc[map[K]V](func(v map[K]V) error {
		if len(v) == 0 {
			return Invalid("should be not empty")
		}
		return nil
	})
}

// Unique rejects sequences holding the same element twice.
func Unique[E comparable]() Validator[[]E] {
	return ValidatorFunc[[]E](func(v []E) error {
		seen := make(map[E]struct{}, len(v))
		for _, e := range v {
			if _, ok := seen[e]; ok {
				return Invalid("not unique")
			}
			seen[e] = struct{}{}
		}
		return nil
	})
}

// OneOf restricts v to the listed values.
func OneOf[T comparable](allowed ...T) Validator[T] {
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = fmt.Sprint(a)
	}
	msg := "should be one of [" + strings.Join(names, ", ") + "]"
	return ValidatorFunc[T](func(v T) error {
		for _, a := range allowed {
			if a == v {
				return nil
			}
		}
		return Invalid(msg)
	})
}

// Match requires the whole string to match re.
func Match[T ~string](re *regexp.Regexp) Validator[T] {
	full := regexp.MustCompile(`^(?:` + re.String() + `)$`)
	msg := "should match " + re.String()
	return ValidatorFunc[T](func(v T) error {
		if !full.MatchString(string(v)) {
			return Invalid(msg)
		}
		return nil
	})
}

// runChecks applies every validator and collects all failures.
func runChecks[T any](v T, checks []Validator[T]) []error {
	var errs []error
	for _, c := range checks {
		if err := c.Check(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
