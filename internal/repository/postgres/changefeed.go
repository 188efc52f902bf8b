package postgres

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/bagdasarian/time-tracker/internal/repository"
	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// NotifyChannel - канал, в который пишет триггер notify_tracker_change
const NotifyChannel = "tracker_changes"

// Listener - часть *pgx.Conn, нужная для LISTEN/NOTIFY
type Listener interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// Dialer открывает новое соединение для LISTEN
type Dialer func(ctx context.Context) (Listener, error)

type subscriptionKey struct {
	userID     string
	collection repository.Collection
}

// ChangeFeed слушает канал NOTIFY и раздает изменения подписчикам по (пользователь, коллекция)
type ChangeFeed struct {
	dial       Dialer
	log        logrus.FieldLogger
	newBackOff func() backoff.BackOff

	mu   sync.Mutex
	subs map[subscriptionKey]map[chan repository.Change]struct{}
}

// NewChangeFeed создает ленту изменений; соединения открываются через dial
func NewChangeFeed(dial Dialer, log logrus.FieldLogger) *ChangeFeed {
	return &ChangeFeed{
		dial:       dial,
		log:        log,
		newBackOff: reconnectBackOff,
		subs:       make(map[subscriptionKey]map[chan repository.Change]struct{}),
	}
}

func reconnectBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// Run слушает канал до отмены ctx. Потерянное соединение открывается заново с
// экспоненциальной задержкой, после чего все подписчики получают OpResync.
func (f *ChangeFeed) Run(ctx context.Context) error {
	for reconnect := false; ; reconnect = true {
		listener, err := f.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		// уведомления, отправленные без соединения, потеряны
		if reconnect {
			f.resync()
		}

		err = f.listen(ctx, listener)
		_ = listener.Close(context.WithoutCancel(ctx))
		if ctx.Err() != nil {
			return nil
		}
		f.log.WithError(err).Warn("change feed connection lost, reconnecting")
	}
}

func (f *ChangeFeed) connect(ctx context.Context) (Listener, error) {
	var listener Listener
	operation := func() error {
		conn, err := f.dial(ctx)
		if err != nil {
			return err
		}
		if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotifyChannel}.Sanitize()); err != nil {
			_ = conn.Close(context.WithoutCancel(ctx))
			return err
		}
		listener = conn
		return nil
	}
	notify := func(err error, wait time.Duration) {
		f.log.WithError(err).WithField("retry_in", wait).Warn("change feed connect failed")
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(f.newBackOff(), ctx), notify); err != nil {
		return nil, domain.NewPersistenceError("listen "+NotifyChannel, err)
	}
	return listener, nil
}

func (f *ChangeFeed) listen(ctx context.Context, listener Listener) error {
	for {
		notification, err := listener.WaitForNotification(ctx)
		if err != nil {
			return domain.NewPersistenceError("wait for notification", err)
		}

		var change repository.Change
		if err := json.Unmarshal([]byte(notification.Payload), &change); err != nil {
			f.log.WithError(err).WithField("payload", notification.Payload).Warn("skipping malformed change payload")
			continue
		}
		f.publish(change)
	}
}

func (f *ChangeFeed) Subscribe(ctx context.Context, userID string, collection repository.Collection) (<-chan repository.Change, error) {
	if userID == "" {
		return nil, domain.NewInvalidInputError("user id is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := subscriptionKey{userID: userID, collection: collection}
	// одного ожидающего изменения достаточно: подписчик все равно перечитывает коллекцию целиком
	ch := make(chan repository.Change, 1)

	f.mu.Lock()
	if f.subs[key] == nil {
		f.subs[key] = make(map[chan repository.Change]struct{})
	}
	f.subs[key][ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.subs[key], ch)
		if len(f.subs[key]) == 0 {
			delete(f.subs, key)
		}
		close(ch)
		f.mu.Unlock()
	}()

	return ch, nil
}

// Subscribers возвращает число активных подписок на (пользователь, коллекция)
func (f *ChangeFeed) Subscribers(userID string, collection repository.Collection) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[subscriptionKey{userID: userID, collection: collection}])
}

func (f *ChangeFeed) publish(change repository.Change) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !change.Shared {
		notify(f.subs[subscriptionKey{userID: change.UserID, collection: change.Collection}], change)
		return
	}
	for key, chans := range f.subs {
		if key.collection == change.Collection {
			notify(chans, change)
		}
	}
}

func (f *ChangeFeed) resync() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key, chans := range f.subs {
		notify(chans, repository.Change{
			Collection: key.collection,
			Op:         repository.OpResync,
			UserID:     key.userID,
		})
	}
}

func notify(chans map[chan repository.Change]struct{}, change repository.Change) {
	for ch := range chans {
		select {
		case ch <- change:
		default:
		}
	}
}
