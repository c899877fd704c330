package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/domain"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/repository"
)

const collectionName = "meetings"

var _ repository.MeetingRepository = (*MeetingRepo)(nil)

type summaryDoc struct {
	Text        string   `bson:"text"`
	ActionItems []string `bson:"action_items"`
}

type meetingDoc struct {
	ID           string             `bson:"_id"`
	Seq          primitive.ObjectID `bson:"seq"`
	AudioLocator string             `bson:"audio_locator"`
	Transcript   *string            `bson:"transcript,omitempty"`
	Summary      *summaryDoc        `bson:"summary,omitempty"`
	State        string             `bson:"state"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func toDoc(m models.MeetingRecord, seq primitive.ObjectID) meetingDoc {
	d := meetingDoc{
		ID:           m.ID.String(),
		Seq:          seq,
		AudioLocator: m.AudioLocator,
		Transcript:   m.Transcript,
		State:        string(m.State),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
	if m.Summary != nil {
		items := append([]string{}, m.Summary.ActionItems...)
		d.Summary = &summaryDoc{Text: m.Summary.Text, ActionItems: items}
	}
	return d
}

func (d meetingDoc) toModel() (models.MeetingRecord, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.MeetingRecord{}, fmt.Errorf("parse meeting id: %w", err)
	}
	state, err := domain.ParseState(d.State)
	if err != nil {
		return models.MeetingRecord{}, err
	}
	m := models.MeetingRecord{
		ID:           id,
		AudioLocator: d.AudioLocator,
		Transcript:   d.Transcript,
		State:        state,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	if d.Summary != nil {
		m.Summary = &models.Summary{Text: d.Summary.Text, ActionItems: append([]string{}, d.Summary.ActionItems...)}
	}
	return m, nil
}

// MeetingRepo keeps meeting records in a MongoDB collection. Timestamps are
// stored with millisecond precision.
type MeetingRepo struct {
	coll *mongo.Collection
}

// Connect dials the server and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func NewMeetingRepo(ctx context.Context, db *mongo.Database) (*MeetingRepo, error) {
	coll := db.Collection(collectionName)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "seq", Value: 1}},
	})
	if err != nil {
		return nil, fmt.Errorf("mongo create index: %w", err)
	}
	return &MeetingRepo{coll: coll}, nil
}

func (r *MeetingRepo) Create(ctx context.Context, m models.MeetingRecord) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if _, err := r.coll.InsertOne(ctx, toDoc(m, primitive.NewObjectID())); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("meeting create: %w", err)
	}
	return nil
}

func (r *MeetingRepo) Update(ctx context.Context, m models.MeetingRecord) error {
	if err := m.Validate(); err != nil {
		return err
	}

	var current meetingDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": m.ID.String()}).Decode(&current)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("meeting update: load: %w", err)
	}
	if current.AudioLocator != m.AudioLocator || !current.CreatedAt.Equal(m.CreatedAt.UTC().Truncate(time.Millisecond)) {
		return models.ErrConflict
	}

	doc := toDoc(m, current.Seq)
	doc.CreatedAt = current.CreatedAt
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID, "seq": current.Seq}, doc)
	if err != nil {
		return fmt.Errorf("meeting update: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *MeetingRepo) GetByID(ctx context.Context, id uuid.UUID) (models.MeetingRecord, error) {
	var d meetingDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.MeetingRecord{}, models.ErrNotFound
	}
	if err != nil {
		return models.MeetingRecord{}, fmt.Errorf("meeting get by id: %w", err)
	}
	return d.toModel()
}

func (r *MeetingRepo) List(ctx context.Context) ([]models.MeetingRecord, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("meeting list: %w", err)
	}
	var docs []meetingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("meeting list: %w", err)
	}

	out := make([]models.MeetingRecord, 0, len(docs))
	for _, d := range docs {
		m, err := d.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MeetingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return fmt.Errorf("meeting delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
