// Package workshop is the application layer: it validates input, applies the
// shop's record-keeping policies and orchestrates the store, the renderers and
// the delivery transports. Every store call is an independent round trip;
// multi-step writes are not transactional.
package workshop

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/garage-service/internal/apperr"
	"github.com/ukydev/garage-service/internal/config"
	"github.com/ukydev/garage-service/internal/db"
	"github.com/ukydev/garage-service/internal/events"
	"github.com/ukydev/garage-service/internal/mail"
	"github.com/ukydev/garage-service/internal/notify"
)

// Deps are the collaborators of a Workshop. Events, Mailer and Now are optional.
type Deps struct {
	Store    db.Store
	Events   events.Publisher
	Mailer   mail.Sender
	Branding config.Branding
	Logger   logrus.FieldLogger
	Now      func() time.Time
}

type Workshop struct {
	store    db.Store
	events   events.Publisher
	mailer   mail.Sender
	composer *notify.Composer
	branding config.Branding
	log      logrus.FieldLogger
	now      func() time.Time
}

// New creates a Workshop.
func New(d Deps) *Workshop {
	w := &Workshop{
		store:    d.Store,
		events:   d.Events,
		mailer:   d.Mailer,
		composer: notify.NewComposer(d.Branding),
		branding: d.Branding,
		log:      d.Logger,
		now:      d.Now,
	}
	if w.events == nil {
		w.events = events.NopPublisher{}
	}
	if w.mailer == nil {
		w.mailer = mail.DisabledSender{}
	}
	if w.log == nil {
		w.log = logrus.StandardLogger()
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// Ping checks the store connection.
func (w *Workshop) Ping(ctx context.Context) error {
	if err := w.store.Ping(ctx); err != nil {
		return w.storageErr("ping", err)
	}
	return nil
}

// storageErr logs a failed store call and hides its detail from callers.
func (w *Workshop) storageErr(op string, err error) error {
	w.log.WithError(err).WithField("op", op).Error("Storage call failed")
	return apperr.NewStorageError(err)
}

// lookupErr maps a failed by-id lookup to NotFound or Storage.
func (w *Workshop) lookupErr(entity, id string, err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return apperr.NewNotFoundError(entity, id)
	}
	return w.storageErr("find "+entity, err)
}

func (w *Workshop) publish(ctx context.Context, e events.Event) {
	if err := w.events.Publish(ctx, e); err != nil {
		w.log.WithError(err).WithFields(logrus.Fields{
			"event":      e.Type,
			"service_id": e.ServiceID,
		}).Warn("Failed to publish event")
	}
}
