package dao

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/talentscout/backend/internal/shared/types"
)

// Table and column names follow the schema shared with the web app, which
// uses quoted camelCase identifiers.

type User struct {
	ID            string     `gorm:"column:id;primaryKey"`
	Name          string     `gorm:"column:name"`
	Email         *string    `gorm:"column:email;unique"`
	EmailVerified *time.Time `gorm:"column:emailVerified"`
	Image         string     `gorm:"column:image"`
}

func (User) TableName() string { return "user" }

// Session is written by the external auth provider and only read here.
type Session struct {
	SessionToken string    `gorm:"column:sessionToken;primaryKey"`
	UserID       string    `gorm:"column:userId;not null;index"`
	Expires      time.Time `gorm:"column:expires;not null"`
	User         *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Session) TableName() string { return "session" }

type JobPost struct {
	ID               string        `gorm:"column:id;primaryKey"`
	OwnerID          string        `gorm:"column:ownerId;not null"`
	UserID           string        `gorm:"column:userId;not null"`
	Title            string        `gorm:"column:title;not null"`
	Description      string        `gorm:"column:description;not null"`
	Department       string        `gorm:"column:department"`
	Location         string        `gorm:"column:location"`
	Type             string        `gorm:"column:type"`
	Status           string        `gorm:"column:status"`
	Priority         string        `gorm:"column:priority"`
	RemotePolicy     string        `gorm:"column:remote_policy"`
	Salary           *types.Salary `gorm:"column:salary;type:jsonb;serializer:json"`
	Responsibilities []string      `gorm:"column:responsibilities;type:jsonb;serializer:json"`
	Requirements     []string      `gorm:"column:requirements;type:jsonb;serializer:json"`
	Benefits         []string      `gorm:"column:benefits;type:jsonb;serializer:json"`
	TechStack        []string      `gorm:"column:tech_stack;type:jsonb;serializer:json"`
	Vector           Vector        `gorm:"column:vector;type:vector(1536)"`
	CreatedAt        time.Time     `gorm:"column:createdAt;not null"`
	UpdatedAt        time.Time     `gorm:"column:updatedAt;not null"`

	Chat *Chat `gorm:"foreignKey:JobPostID;constraint:OnDelete:CASCADE"`
}

func (JobPost) TableName() string { return "jobPost" }

// Owner returns the user the job belongs to. Older rows only carry userId.
func (j JobPost) Owner() string {
	if j.OwnerID != "" {
		return j.OwnerID
	}
	return j.UserID
}

type Chat struct {
	ID        string    `gorm:"column:id;primaryKey"`
	JobPostID string    `gorm:"column:jobPostId;not null;index"`
	Title     string    `gorm:"column:title"`
	CreatedAt time.Time `gorm:"column:createdAt;not null"`
	UpdatedAt time.Time `gorm:"column:updatedAt;not null"`

	Messages []ChatMessage `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
}

func (Chat) TableName() string { return "chat" }

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	ID        string    `gorm:"column:id;primaryKey"`
	ChatID    string    `gorm:"column:chatId;not null;index"`
	Role      string    `gorm:"column:role;not null"`
	Content   string    `gorm:"column:content"`
	CreatedAt time.Time `gorm:"column:createdAt;not null"`

	ToolCalls []ToolCall `gorm:"foreignKey:ChatMessageID;constraint:OnDelete:CASCADE"`
}

func (ChatMessage) TableName() string { return "chatMessage" }

type ToolCall struct {
	ID            string    `gorm:"column:id;primaryKey"`
	ChatMessageID string    `gorm:"column:chatMessageId;not null;index"`
	Name          string    `gorm:"column:name;not null"`
	Args          any       `gorm:"column:args;type:jsonb;serializer:json"`
	Result        any       `gorm:"column:result;type:jsonb;serializer:json"`
	CreatedAt     time.Time `gorm:"column:createdAt;not null"`
}

func (ToolCall) TableName() string { return "toolcall" }

type LinkedInProfile struct {
	ID              string       `gorm:"column:id;primaryKey"`
	Handle          string       `gorm:"column:handle;not null;unique"`
	Data            types.Person `gorm:"column:data;type:jsonb;serializer:json;not null"`
	ProfileImageB64 string       `gorm:"column:profileImageB64"`
	Vector          Vector       `gorm:"column:vector;type:vector(1536)"`
	CreatedAt       time.Time    `gorm:"column:createdAt;not null"`
	UpdatedAt       time.Time    `gorm:"column:updatedAt;not null"`
	ExpiresAt       time.Time    `gorm:"column:expiresAt;not null"`
}

func (LinkedInProfile) TableName() string { return "linkedInProfile" }

// Expired reports whether the cached profile should be fetched again.
func (p LinkedInProfile) Expired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

type Candidate struct {
	ID                string    `gorm:"column:id;primaryKey"`
	JobPostID         string    `gorm:"column:jobPostId;not null;index"`
	LinkedInProfileID string    `gorm:"column:linkedInProfileId;not null;index"`
	Reasoning         string    `gorm:"column:reasoning"`
	EagerlyAdded      bool      `gorm:"column:eagerlyAdded;not null;default:false"`
	MatchScore        *int      `gorm:"column:matchScore"`
	CreatedAt         time.Time `gorm:"column:createdAt;not null"`
	UpdatedAt         time.Time `gorm:"column:updatedAt;not null"`

	LinkedInProfile *LinkedInProfile `gorm:"foreignKey:LinkedInProfileID;constraint:OnDelete:CASCADE"`
}

func (Candidate) TableName() string { return "candidate" }

// Models lists every table owned by this service, in dependency order.
func Models() []any {
	return []any{
		&User{}, &Session{}, &JobPost{}, &Chat{}, &ChatMessage{},
		&ToolCall{}, &LinkedInProfile{}, &Candidate{},
	}
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (j *JobPost) BeforeCreate(*gorm.DB) error         { newID(&j.ID); return nil }
func (c *Chat) BeforeCreate(*gorm.DB) error            { newID(&c.ID); return nil }
func (m *ChatMessage) BeforeCreate(*gorm.DB) error     { newID(&m.ID); return nil }
func (t *ToolCall) BeforeCreate(*gorm.DB) error        { newID(&t.ID); return nil }
func (p *LinkedInProfile) BeforeCreate(*gorm.DB) error { newID(&p.ID); return nil }
func (c *Candidate) BeforeCreate(*gorm.DB) error       { newID(&c.ID); return nil }
