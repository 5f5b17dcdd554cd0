package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/corvidlabs/brochure/data"
	"gorm.io/gorm"
	"sigs.k8s.io/yaml"
)

// SeedPage is a page with its sections inline.
type SeedPage struct {
	Page
	Sections []Section `json:"sections,omitempty"`
}

// SeedData is the shape of data/seed.yaml.
type SeedData struct {
	Pages        []SeedPage    `json:"pages"`
	Services     []Service     `json:"services"`
	Solutions    []Solution    `json:"solutions"`
	CaseStudies  []CaseStudy   `json:"caseStudies"`
	TeamMembers  []TeamMember  `json:"teamMembers"`
	Testimonials []Testimonial `json:"testimonials"`
	Partners     []Partner     `json:"partners"`
	Insights     []Insight     `json:"insights"`
}

// ParseSeed decodes seed YAML.
func ParseSeed(r io.Reader) (*SeedData, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("content: can't read seed data: %w", err)
	}

	var sd SeedData
	if err := yaml.UnmarshalStrict(raw, &sd); err != nil {
		return nil, fmt.Errorf("content: can't parse seed data: %w", err)
	}

	return &sd, nil
}

// LoadSeed reads seed YAML from fname, or the built-in sample content when
// fname is empty.
func LoadSeed(fname string) (*SeedData, error) {
	var (
		fin io.ReadCloser
		err error
	)

	if fname != "" {
		fin, err = os.Open(fname)
	} else {
		fin, err = data.FS.Open(data.SeedFile)
	}
	if err != nil {
		return nil, fmt.Errorf("content: can't open seed data: %w", err)
	}
	defer fin.Close()

	return ParseSeed(fin)
}

// Seed loads sd into every table that is still empty. Tables that already
// hold rows are left alone, so running it twice is harmless. It returns the
// number of records created.
func (db *DB) Seed(ctx context.Context, sd *SeedData) (int, error) {
	var created int

	err := db.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := seedPages(tx, sd.Pages)
		if err != nil {
			return err
		}
		created += n

		for _, step := range []struct {
			model any
			rows  any
			count int
		}{
			{&Service{}, &sd.Services, len(sd.Services)},
			{&Solution{}, &sd.Solutions, len(sd.Solutions)},
			{&CaseStudy{}, &sd.CaseStudies, len(sd.CaseStudies)},
			{&TeamMember{}, &sd.TeamMembers, len(sd.TeamMembers)},
			{&Testimonial{}, &sd.Testimonials, len(sd.Testimonials)},
			{&Partner{}, &sd.Partners, len(sd.Partners)},
			{&Insight{}, &sd.Insights, len(sd.Insights)},
		} {
			if step.count == 0 {
				continue
			}

			empty, err := isEmpty(tx, step.model)
			if err != nil {
				return err
			}
			if !empty {
				slog.Debug("table already has rows, not seeding", "model", fmt.Sprintf("%T", step.model))
				continue
			}

			if err := tx.Create(step.rows).Error; err != nil {
				return fmt.Errorf("content: can't seed %T: %w", step.model, translate(err))
			}
			created += step.count
		}

		return nil
	})

	return created, err
}

func seedPages(tx *gorm.DB, pages []SeedPage) (int, error) {
	if len(pages) == 0 {
		return 0, nil
	}

	empty, err := isEmpty(tx, &Page{})
	if err != nil || !empty {
		return 0, err
	}

	var created int
	for _, sp := range pages {
		page := sp.Page
		if err := tx.Create(&page).Error; err != nil {
			return 0, fmt.Errorf("content: can't seed page %q: %w", page.Slug, translate(err))
		}
		created++

		for _, sec := range sp.Sections {
			sec.PageID = page.ID
			if err := tx.Create(&sec).Error; err != nil {
				return 0, fmt.Errorf("content: can't seed section %q of page %q: %w", sec.Key, page.Slug, translate(err))
			}
			created++
		}
	}

	return created, nil
}

func isEmpty(tx *gorm.DB, model any) (bool, error) {
	var n int64
	if err := tx.Model(model).Count(&n).Error; err != nil {
		return false, err
	}
	return n == 0, nil
}
