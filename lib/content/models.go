package content

import "time"

// Base is embedded in every record.
type Base struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Base) setID(id uint) { b.ID = id }

// Ordered records are listed by Position and can be hidden from the public
// site without deleting them.
type Ordered struct {
	Position int  `gorm:"index" json:"position"`
	Active   bool `gorm:"index" json:"active"`
}

func (o *Ordered) ordering() *Ordered { return o }

// Slugged records are addressable by a URL slug.
type Slugged struct {
	Slug string `gorm:"uniqueIndex;size:128;not null" json:"slug"`
}

func (s *Slugged) slug() string { return s.Slug }

type Page struct {
	Base
	Ordered
	Slugged
	Title           string `gorm:"size:200;not null" json:"title"`
	MetaDescription string `gorm:"size:300" json:"metaDescription"`
}

// Section is a block of a Page. Body is markdown.
type Section struct {
	Base
	Ordered
	PageID  uint   `gorm:"index;not null" json:"pageID"`
	Key     string `gorm:"size:64" json:"key"`
	Heading string `gorm:"size:200" json:"heading"`
	Body    string `json:"body"`
	Image   string `gorm:"size:300" json:"image,omitempty"`
}

type Service struct {
	Base
	Ordered
	Slugged
	Title   string `gorm:"size:200;not null" json:"title"`
	Summary string `gorm:"size:500" json:"summary"`
	Body    string `json:"body"`
	Icon    string `gorm:"size:64" json:"icon,omitempty"`
}

type Solution struct {
	Base
	Ordered
	Slugged
	Title   string `gorm:"size:200;not null" json:"title"`
	Summary string `gorm:"size:500" json:"summary"`
	Body    string `json:"body"`
	Image   string `gorm:"size:300" json:"image,omitempty"`
}

type CaseStudy struct {
	Base
	Ordered
	Slugged
	Title   string `gorm:"size:200;not null" json:"title"`
	Client  string `gorm:"size:200" json:"client"`
	Summary string `gorm:"size:500" json:"summary"`
	Body    string `json:"body"`
	Image   string `gorm:"size:300" json:"image,omitempty"`
}

type TeamMember struct {
	Base
	Ordered
	Name     string `gorm:"size:200;not null" json:"name"`
	Role     string `gorm:"size:200" json:"role"`
	Bio      string `json:"bio"`
	Photo    string `gorm:"size:300" json:"photo,omitempty"`
	LinkedIn string `gorm:"size:300" json:"linkedIn,omitempty"`
}

type Testimonial struct {
	Base
	Ordered
	Author  string `gorm:"size:200;not null" json:"author"`
	Company string `gorm:"size:200" json:"company"`
	Quote   string `gorm:"not null" json:"quote"`
	Rating  int    `json:"rating"`
}

type Partner struct {
	Base
	Ordered
	Name string `gorm:"size:200;not null" json:"name"`
	Logo string `gorm:"size:300" json:"logo,omitempty"`
	URL  string `gorm:"size:300" json:"url,omitempty"`
}

type Insight struct {
	Base
	Ordered
	Slugged
	Title       string     `gorm:"size:200;not null" json:"title"`
	Summary     string     `gorm:"size:500" json:"summary"`
	Body        string     `json:"body"`
	Author      string     `gorm:"size:200" json:"author"`
	Image       string     `gorm:"size:300" json:"image,omitempty"`
	PublishedAt *time.Time `gorm:"index" json:"publishedAt,omitempty"`
}

// Message is a contact form submission.
type Message struct {
	Base
	Name      string `gorm:"size:200;not null" json:"name"`
	Email     string `gorm:"size:320;not null" json:"email"`
	Phone     string `gorm:"size:64" json:"phone,omitempty"`
	Company   string `gorm:"size:200" json:"company,omitempty"`
	Subject   string `gorm:"size:200" json:"subject,omitempty"`
	Body      string `gorm:"not null" json:"body"`
	IP        string `gorm:"size:64" json:"ip"`
	UserAgent string `gorm:"size:500" json:"userAgent"`
	Read      bool   `gorm:"index" json:"read"`
}

// User is an admin account. Passwords are bcrypt hashes.
type User struct {
	Base
	Email        string     `gorm:"uniqueIndex;size:320;not null" json:"email"`
	Name         string     `gorm:"size:200" json:"name"`
	PasswordHash string     `gorm:"size:100;not null" json:"-"`
	Active       bool       `json:"active"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty"`
}

// Models lists every table, in migration order.
func Models() []any {
	return []any{
		&Page{},
		&Section{},
		&Service{},
		&Solution{},
		&CaseStudy{},
		&TeamMember{},
		&Testimonial{},
		&Partner{},
		&Insight{},
		&Message{},
		&User{},
	}
}
