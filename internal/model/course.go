package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers; the frontend does arithmetic on them.
	decimal.MarshalJSONWithoutQuotes = true
}

// Course levels.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// ValidLevel reports whether l is a known course level.
func ValidLevel(l string) bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Categories lists the tags a course may carry in its category field.
var Categories = []string{
	"development", "business", "it", "finance", "marketing",
	"design", "data-science", "ai-ml", "other",
}

// ParseCategories splits a comma separated category field into tags and
// reports whether every tag is known. Empty segments are dropped.
func ParseCategories(raw string) ([]string, bool) {
	var tags []string
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tags = append(tags, p)
	}
	if len(tags) == 0 {
		return nil, false
	}
	for _, t := range tags {
		known := false
		for _, c := range Categories {
			if t == c {
				known = true
				break
			}
		}
		if !known {
			return tags, false
		}
	}
	return tags, true
}

// Course mirrors the `courses` table. Name is unique under a
// case-insensitive collation. EnrolledCount is only ever incremented by
// the enrollment path.
type Course struct {
	ID              uint64          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Category        string          `json:"category"`
	Subcategory     string          `json:"subcategory"`
	Image           string          `json:"image"`
	Instructor      string          `json:"instructor"`
	InstructorEmail string          `json:"instructorEmail"`
	Duration        string          `json:"duration"`
	Level           string          `json:"level"`
	Language        string          `json:"language"`
	IsActive        bool            `json:"isActive"`
	EnrolledCount   uint32          `json:"enrolledCount"`
	Rating          decimal.Decimal `json:"rating"`
	ReviewCount     uint32          `json:"reviewCount"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CourseSummary is the subset of course fields embedded in cart, wishlist,
// order and enrollment line items. Fields not selected by a query stay
// empty and are omitted from JSON.
type CourseSummary struct {
	ID          uint64           `json:"id"`
	Name        string           `json:"name"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Image       string           `json:"image,omitempty"`
	Instructor  string           `json:"instructor,omitempty"`
	Category    string           `json:"category,omitempty"`
	Description string           `json:"description,omitempty"`
	Duration    string           `json:"duration,omitempty"`
	Level       string           `json:"level,omitempty"`
}

// Summary builds the line-item view of c.
func (c Course) Summary() CourseSummary {
	p := c.Price
	return CourseSummary{
		ID:         c.ID,
		Name:       c.Name,
		Price:      &p,
		Image:      c.Image,
		Instructor: c.Instructor,
		Category:   c.Category,
		Duration:   c.Duration,
		Level:      c.Level,
	}
}

// CoursePatch carries a partial course update. Nil fields are left unchanged.
type CoursePatch struct {
	Name            *string
	Description     *string
	Price           *decimal.Decimal
	Category        *string
	Subcategory     *string
	Image           *string
	Instructor      *string
	InstructorEmail *string
	Duration        *string
	Level           *string
	Language        *string
	IsActive        *bool
}

// Apply writes the non-nil fields of p onto c.
func (p CoursePatch) Apply(c *Course) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Price != nil {
		c.Price = *p.Price
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.Subcategory != nil {
		c.Subcategory = *p.Subcategory
	}
	if p.Image != nil {
		c.Image = *p.Image
	}
	if p.Instructor != nil {
		c.Instructor = *p.Instructor
	}
	if p.InstructorEmail != nil {
		c.InstructorEmail = strings.ToLower(strings.TrimSpace(*p.InstructorEmail))
	}
	if p.Duration != nil {
		c.Duration = *p.Duration
	}
	if p.Level != nil {
		c.Level = *p.Level
	}
	if p.Language != nil {
		c.Language = *p.Language
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
}
