package fieldbind

import (
	"math"
	"strconv"
	"strings"
)

// Coercion задаёт политику приведения сырых строк из таблицы к скалярам.
// Применяется к каждому значению отдельно, соседей не смотрит.
type Coercion struct {
	TrueTokens  []string `yaml:"true_tokens"`
	FalseTokens []string `yaml:"false_tokens"`
	// Значение с LiteralMarker всегда остаётся строкой ("2024#note").
	LiteralMarker string `yaml:"literal_marker"`
	Numbers       bool   `yaml:"numbers"`
}

func DefaultCoercion() Coercion {
	return Coercion{
		TrueTokens:    []string{"true"},
		FalseTokens:   []string{"false"},
		LiteralMarker: "#",
		Numbers:       true,
	}
}

// Coerce: "" → "", true/false (без учёта регистра) → bool, строка с маркером → как есть,
// конечное число → float64, иначе строка.
func (c Coercion) Coerce(raw string) any {
	if raw == "" {
		return ""
	}
	for _, t := range c.TrueTokens {
		if strings.EqualFold(raw, t) {
			return true
		}
	}
	for _, t := range c.FalseTokens {
		if strings.EqualFold(raw, t) {
			return false
		}
	}
	if c.LiteralMarker != "" && strings.Contains(raw, c.LiteralMarker) {
		return raw
	}
	if c.Numbers {
		if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return f
		}
	}
	return raw
}
