package domain

import (
	"errors"
	"strings"
	"time"
)

// SettingCategory groups settings for presentation. It is denormalized onto
// the row; the key alone identifies a setting.
type SettingCategory string

const (
	SettingCategoryGeneral  SettingCategory = "general"
	SettingCategoryCompany  SettingCategory = "company"
	SettingCategorySEO      SettingCategory = "seo"
	SettingCategoryFeatures SettingCategory = "features"
)

func NormalizeSettingCategory(raw string) (SettingCategory, bool) {
	switch SettingCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case SettingCategoryGeneral:
		return SettingCategoryGeneral, true
	case SettingCategoryCompany:
		return SettingCategoryCompany, true
	case SettingCategorySEO:
		return SettingCategorySEO, true
	case SettingCategoryFeatures:
		return SettingCategoryFeatures, true
	default:
		return "", false
	}
}

// Setting is a single key/value row of the global settings store. Rows are
// seeded once at system initialization and mutated only through batch
// updates; the empty string is a legal value.
type Setting struct {
	Key       string
	Value     string
	Category  SettingCategory
	UpdatedAt time.Time
	UpdatedBy string
}

func (s Setting) Validate() error {
	if strings.TrimSpace(s.Key) == "" {
		return errors.New("setting key is required")
	}
	if _, ok := NormalizeSettingCategory(string(s.Category)); !ok {
		return errors.New("unknown setting category")
	}
	return nil
}

// DefaultSettings is the fixed key set seeded at system initialization.
func DefaultSettings() []Setting {
	return []Setting{
		{Key: "site_title", Category: SettingCategoryGeneral},
		{Key: "site_tagline", Category: SettingCategoryGeneral},
		{Key: "contact_email", Category: SettingCategoryGeneral},
		{Key: "company_name", Category: SettingCategoryCompany},
		{Key: "company_address", Category: SettingCategoryCompany},
		{Key: "company_phone", Category: SettingCategoryCompany},
		{Key: "meta_title", Category: SettingCategorySEO},
		{Key: "meta_description", Category: SettingCategorySEO},
		{Key: "meta_keywords", Category: SettingCategorySEO},
		{Key: "enable_blog", Value: "true", Category: SettingCategoryFeatures},
		{Key: "enable_careers", Value: "true", Category: SettingCategoryFeatures},
		{Key: "enable_projects", Value: "true", Category: SettingCategoryFeatures},
	}
}
