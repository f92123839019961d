package core

import (
	"errors"
	"slices"
	"strings"
)

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

const (
	WarnOn  = "on"
	WarnOff = "off"
)

// BudgetKeys lists the budget categories in display order.
var BudgetKeys = []string{"food", "books", "transport", "entertainment", "fees", "other"}

var (
	ErrInvalidTheme  = errors.New("invalid theme")
	ErrInvalidWarn   = errors.New("invalid warnOverCap value")
	ErrInvalidBudget = errors.New("invalid budget cap")
)

type (
	Theme string

	// Settings holds the user's preferences and monthly budget caps.
	Settings struct {
		Name        string           `json:"name"`
		Theme       Theme            `json:"theme"`
		WarnOverCap string           `json:"warnOverCap"`
		Budget      map[string]int64 `json:"budget"`
	}

	// SettingsPatch is a partial settings update; nil fields are left alone
	// and Budget entries are merged key by key.
	SettingsPatch struct {
		Name        *string          `json:"name,omitempty"`
		Theme       *Theme           `json:"theme,omitempty"`
		WarnOverCap *string          `json:"warnOverCap,omitempty"`
		Budget      map[string]int64 `json:"budget,omitempty"`
	}
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark || t == ThemeSystem
}

// DefaultSettings returns the settings used when nothing valid is stored.
func DefaultSettings() Settings {
	budget := make(map[string]int64, len(BudgetKeys))
	for _, k := range BudgetKeys {
		budget[k] = 0
	}
	return Settings{
		Name:        "",
		Theme:       ThemeSystem,
		WarnOverCap: WarnOn,
		Budget:      budget,
	}
}

// IsBudgetKey reports whether key is one of BudgetKeys.
func IsBudgetKey(key string) bool {
	for _, k := range BudgetKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Normalize replaces every invalid field with its default and restricts
// the budget to BudgetKeys.
func (s Settings) Normalize() Settings {
	def := DefaultSettings()
	out := Settings{
		Name:        strings.TrimSpace(s.Name),
		Theme:       s.Theme,
		WarnOverCap: s.WarnOverCap,
		Budget:      def.Budget,
	}
	if !out.Theme.Valid() {
		out.Theme = def.Theme
	}
	if out.WarnOverCap != WarnOn && out.WarnOverCap != WarnOff {
		out.WarnOverCap = def.WarnOverCap
	}
	for k, v := range canonicalBudget(s.Budget) {
		if IsBudgetKey(k) && v >= 0 {
			out.Budget[k] = v
		}
	}
	return out
}

// canonicalBudget lowercases and trims budget keys. Spellings are visited
// in sorted order and an exact lowercase key beats any other spelling.
func canonicalBudget(in map[string]int64) map[string]int64 {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make(map[string]int64, len(in))
	exact := make(map[string]bool, len(in))
	for _, raw := range keys {
		k := budgetKey(raw)
		if exact[k] {
			continue
		}
		out[k] = in[raw]
		exact[k] = raw == k
	}
	return out
}

func budgetKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// Validate rejects patches that would store out-of-range values.
func (p SettingsPatch) Validate() error {
	if p.Theme != nil && !p.Theme.Valid() {
		return ErrInvalidTheme
	}
	if p.WarnOverCap != nil && *p.WarnOverCap != WarnOn && *p.WarnOverCap != WarnOff {
		return ErrInvalidWarn
	}
	for _, v := range p.Budget {
		if v < 0 {
			return ErrInvalidBudget
		}
	}
	return nil
}

// Apply merges p over s: top-level fields are replaced, budget keys merged.
func (p SettingsPatch) Apply(s Settings) Settings {
	out := s.Normalize()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Theme != nil {
		out.Theme = *p.Theme
	}
	if p.WarnOverCap != nil {
		out.WarnOverCap = *p.WarnOverCap
	}
	for k, v := range canonicalBudget(p.Budget) {
		out.Budget[k] = v
	}
	return out.Normalize()
}
