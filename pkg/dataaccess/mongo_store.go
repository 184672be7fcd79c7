package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fennec-bot/fennec/pkg/dataaccess/monitoring"
	"github.com/fennec-bot/fennec/pkg/entities"
	"github.com/fennec-bot/fennec/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoStoreName = "mongo_store"

	mongoDatabase = "fennec"

	// guildsCollection holds one document per guild: the config plus the
	// embedded ticket history.
	guildsCollection = "guilds"
)

// guildDocument is the persisted shape of one guild.
type guildDocument struct {
	GuildID            string `bson:"guild_id"`
	entities.GuildData `bson:",inline"`
}

// MongoStore is a TicketStore backed by MongoDB. It implements the same
// contract as FileStore; the one-active-ticket invariant is enforced with a
// guarded update filter rather than a read-then-write.
type MongoStore struct {
	// l is the logger.
	l *slog.Logger

	// client is the database. This is a connection pool.
	client *mongo.Client
}

// NewMongoStore creates a Mongo-backed ticket store.
func NewMongoStore(client *mongo.Client, l *slog.Logger) *MongoStore {
	return &MongoStore{
		l:      l.With(slog.String(logging.KeyStore, mongoStoreName)),
		client: client,
	}
}

func (s *MongoStore) collection() *mongo.Collection {
	return s.client.Database(mongoDatabase).Collection(guildsCollection)
}

func (s *MongoStore) observe(op string) *prometheus.Timer {
	monitoring.StoreTotalRequests.WithLabelValues(mongoStoreName, op).Inc()
	return prometheus.NewTimer(monitoring.StoreLatency.WithLabelValues(mongoStoreName, op))
}

// SetConfig replaces the guild's config wholesale.
func (s *MongoStore) SetConfig(ctx context.Context, guildID string, cfg *entities.GuildConfig) error {
	t := s.observe("set_config")
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := s.collection().UpdateOne(ctx,
		bson.M{"guild_id": guildID},
		bson.M{
			"$set":         bson.M{"setup": cfg},
			"$setOnInsert": bson.M{"tickets": bson.A{}},
		},
		opts,
	)
	if err != nil {
		return fmt.Errorf("error updating guild config: %w", err)
	}
	return nil
}

// Config returns the guild's config, or ErrConfigNotFound.
func (s *MongoStore) Config(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	t := s.observe("get_config")
	defer t.ObserveDuration()

	doc := new(guildDocument)
	err := s.collection().FindOne(ctx, bson.M{"guild_id": guildID}).Decode(doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrConfigNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting guild: %w", err)
	}

	if doc.Config == nil {
		return nil, ErrConfigNotFound
	}
	return doc.Config, nil
}

// AddTicket appends a ticket record. The update filter excludes documents
// that already hold an active ticket for the user, so the check and insert
// are one server-side operation.
func (s *MongoStore) AddTicket(ctx context.Context, guildID string, ticket *entities.Ticket) error {
	t := s.observe("add_ticket")
	defer t.ObserveDuration()

	res, err := s.collection().UpdateOne(ctx,
		bson.M{
			"guild_id": guildID,
			"tickets": bson.M{"$not": bson.M{"$elemMatch": bson.M{
				"user_id": ticket.UserID,
				"active":  true,
			}}},
		},
		bson.M{"$push": bson.M{"tickets": ticket}},
	)
	if err != nil {
		return fmt.Errorf("error adding ticket: %w", err)
	}

	if res.MatchedCount == 0 {
		// Either the guild document does not exist yet, or the filter
		// rejected it because an active ticket exists.
		count, err := s.collection().CountDocuments(ctx, bson.M{"guild_id": guildID})
		if err != nil {
			return fmt.Errorf("error checking guild document: %w", err)
		}
		if count > 0 {
			return ErrActiveTicketExists
		}

		_, err = s.collection().UpdateOne(ctx,
			bson.M{"guild_id": guildID},
			bson.M{"$push": bson.M{"tickets": ticket}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("error inserting guild document: %w", err)
		}
	}
	return nil
}

// HasActiveTicket reports whether the user has an active ticket in the guild.
func (s *MongoStore) HasActiveTicket(ctx context.Context, guildID, userID string) (bool, error) {
	t := s.observe("has_active_ticket")
	defer t.ObserveDuration()

	count, err := s.collection().CountDocuments(ctx, bson.M{
		"guild_id": guildID,
		"tickets": bson.M{"$elemMatch": bson.M{
			"user_id": userID,
			"active":  true,
		}},
	})
	if err != nil {
		return false, fmt.Errorf("error counting active tickets: %w", err)
	}
	return count > 0, nil
}

// TicketByChannel returns the first ticket record for the channel, or
// ErrTicketNotFound.
func (s *MongoStore) TicketByChannel(ctx context.Context, guildID, channelID string) (*entities.Ticket, error) {
	t := s.observe("ticket_by_channel")
	defer t.ObserveDuration()

	doc := new(guildDocument)
	err := s.collection().FindOne(ctx, bson.M{
		"guild_id":           guildID,
		"tickets.channel_id": channelID,
	}).Decode(doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTicketNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}

	for _, ticket := range doc.Tickets {
		if ticket.ChannelID == channelID {
			return ticket, nil
		}
	}
	return nil, ErrTicketNotFound
}

// CloseTicket marks the channel's ticket inactive. No match is a silent
// no-op.
func (s *MongoStore) CloseTicket(ctx context.Context, guildID, channelID string) error {
	t := s.observe("close_ticket")
	defer t.ObserveDuration()

	_, err := s.collection().UpdateOne(ctx,
		bson.M{
			"guild_id":           guildID,
			"tickets.channel_id": channelID,
		},
		bson.M{"$set": bson.M{"tickets.$.active": false}},
	)
	if err != nil {
		return fmt.Errorf("error closing ticket: %w", err)
	}
	return nil
}

// Ping pings the server.
func (s *MongoStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("error pinging mongo: %w", err)
	}
	return nil
}
