package mail

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"twitter-clone/internal/storage"
)

// OutboxMailer drops rendered messages into an object storage bucket where an
// external relay picks them up.
type OutboxMailer struct {
	store     storage.Service
	bucket    string
	keyPrefix string
	logger    logrus.FieldLogger
	now       func() time.Time
}

func NewOutboxMailer(store storage.Service, bucket, keyPrefix string, logger logrus.FieldLogger) *OutboxMailer {
	return &OutboxMailer{
		store:     store,
		bucket:    bucket,
		keyPrefix: keyPrefix,
		logger:    logger,
		now:       time.Now,
	}
}

func (m *OutboxMailer) Send(ctx context.Context, msg Message) error {
	now := m.now()
	key := path.Join(m.keyPrefix, now.UTC().Format("2006/01/02"), uuid.NewString()+".eml")

	loc, err := m.store.Put(ctx, storage.PutInput{
		Bucket:      m.bucket,
		Key:         key,
		Body:        bytes.NewReader(msg.Bytes(now)),
		ContentType: "message/rfc822",
	})
	if err != nil {
		return fmt.Errorf("queue mail to %s: %w", msg.To, err)
	}

	m.logger.WithFields(logrus.Fields{"to": msg.To, "location": loc}).Debug("mail queued")
	return nil
}

var _ Mailer = (*OutboxMailer)(nil)
