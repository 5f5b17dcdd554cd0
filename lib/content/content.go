// Package content stores the marketing site's records in sqlite through gorm.
package content

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB bundles one Repo per record type.
type DB struct {
	gorm *gorm.DB

	Pages        *Repo[Page]
	Sections     *Repo[Section]
	Services     *Repo[Service]
	Solutions    *Repo[Solution]
	CaseStudies  *Repo[CaseStudy]
	TeamMembers  *Repo[TeamMember]
	Testimonials *Repo[Testimonial]
	Partners     *Repo[Partner]
	Insights     *Repo[Insight]
	Messages     *Repo[Message]
	Users        *Repo[User]
}

// Open opens (creating if needed) the sqlite database at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("content: can't create database directory %s: %w", dir, err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=10000&_foreign_keys=on"

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("content: can't open sqlite database %s: %w", path, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("content: can't get database handle: %w", err)
	}
	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	return wrap(gdb), nil
}

func wrap(gdb *gorm.DB) *DB {
	return &DB{
		gorm:         gdb,
		Pages:        NewRepo[Page](gdb),
		Sections:     NewRepo[Section](gdb),
		Services:     NewRepo[Service](gdb),
		Solutions:    NewRepo[Solution](gdb),
		CaseStudies:  NewRepo[CaseStudy](gdb),
		TeamMembers:  NewRepo[TeamMember](gdb),
		Testimonials: NewRepo[Testimonial](gdb),
		Partners:     NewRepo[Partner](gdb),
		Insights:     NewRepo[Insight](gdb),
		Messages:     NewRepo[Message](gdb),
		Users:        NewRepo[User](gdb),
	}
}

// Migrate creates or updates every table.
func (db *DB) Migrate(ctx context.Context) error {
	if err := db.gorm.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("content: can't migrate schema: %w", err)
	}
	return nil
}

// Ping checks the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (db *DB) Close() error {
	sqlDB, err := db.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UserByEmail looks up an admin account.
func (db *DB) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	if err := db.gorm.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, fmt.Errorf("%w: user %q", translate(err), email)
	}
	return &u, nil
}

// PageWithSections returns an active page and its active sections in order.
func (db *DB) PageWithSections(ctx context.Context, slug string) (*Page, []Section, error) {
	page, err := db.Pages.GetBySlug(ctx, slug, true)
	if err != nil {
		return nil, nil, err
	}

	sections, err := db.Sections.List(ctx, ListOptions{
		ActiveOnly: true,
		Where:      map[string]any{"page_id": page.ID},
	})
	if err != nil {
		return nil, nil, err
	}

	return page, sections, nil
}

// PublishedInsights lists active insights whose publish time has passed,
// newest first. Times are compared in Go since sqlite stores them as text.
func (db *DB) PublishedInsights(ctx context.Context, now time.Time, limit int) ([]Insight, error) {
	var rows []Insight
	if err := db.gorm.WithContext(ctx).
		Where("active = ? AND published_at IS NOT NULL", true).
		Find(&rows).Error; err != nil {
		return nil, translate(err)
	}

	result := rows[:0]
	for _, in := range rows {
		if !in.PublishedAt.After(now) {
			result = append(result, in)
		}
	}

	slices.SortStableFunc(result, func(a, b Insight) int {
		if c := b.PublishedAt.Compare(*a.PublishedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// UnreadMessages counts contact submissions nobody has read yet.
func (db *DB) UnreadMessages(ctx context.Context) (int64, error) {
	return db.Messages.Count(ctx, ListOptions{Where: map[string]any{"read": false}})
}
