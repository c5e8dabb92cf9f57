package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"alliancefeed/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
	}

	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		user.Password = "password123"
	} else {
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
		user.Password = string(hashedPassword)
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		log.Printf("[dry-run] CreateUser: %s <%s>", user.Username, user.Email)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildComment constructs a comment attributed to the given user but does
// not persist it. Timestamps are spread backwards over MaxDays for a
// realistic feed.
func (f *Factory) BuildComment(user *models.User, overrides ...func(*models.Comment)) *models.Comment {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	daysBack := f.rand.Intn(maxDays)
	hoursBack := f.rand.Intn(24)
	minsBack := f.rand.Intn(60)

	comment := &models.Comment{
		ID:        uuid.NewString(),
		Text:      gofakeit.Sentence(f.rand.Intn(12) + 3),
		Author:    user.Username,
		Timestamp: time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute),
	}

	for _, override := range overrides {
		override(comment)
	}
	return comment
}

// CreateComment constructs and persists a sample `models.Comment`.
func (f *Factory) CreateComment(user *models.User, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := f.BuildComment(user, overrides...)

	if f.opts.DryRun {
		log.Printf("[dry-run] CreateComment: %s: %q", comment.Author, comment.Text)
		return comment, nil
	}

	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateReply persists a comment replying to parent, prefixed with the
// parent author's name the way the composer pre-fills it.
func (f *Factory) CreateReply(user *models.User, parent *models.Comment, overrides ...func(*models.Comment)) (*models.Comment, error) {
	return f.CreateComment(user, append([]func(*models.Comment){
		func(c *models.Comment) {
			c.ReplyTo = &parent.ID
			c.Text = parent.Author + " " + c.Text
			// Replies land after their parent
			if c.Timestamp.Before(parent.Timestamp) {
				c.Timestamp = parent.Timestamp.Add(time.Duration(f.rand.Intn(120)+1) * time.Minute)
			}
		},
	}, overrides...)...)
}

// CreateCommentsBatch persists multiple comments in a single DB call when possible.
func (f *Factory) CreateCommentsBatch(comments []*models.Comment) error {
	if f.opts.DryRun {
		log.Printf("[dry-run] CreateCommentsBatch: %d comments (no DB write)", len(comments))
		return nil
	}
	return f.db.Create(&comments).Error
}
