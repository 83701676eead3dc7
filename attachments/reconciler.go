package attachments

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/praxxy/backoffice/storage"
)

// Reasons recorded with queued deletions.
const (
	ReasonCompensate = "compensate"
	ReasonObsolete   = "obsolete"
	ReasonRemoved    = "removed"
)

// Reconciler stores uploads and persists the record that references them. Files are
// always written before the record; a failed write on either side is undone so that
// neither orphan files nor dangling references survive an observed failure.
type Reconciler struct {
	store storage.BlobStore
	queue Queue
	log   *zap.Logger
}

func NewReconciler(store storage.BlobStore, queue Queue, log *zap.Logger) *Reconciler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{store: store, queue: queue, log: log}
}

// Store exposes the underlying blob store.
func (r *Reconciler) Store() storage.BlobStore {
	return r.store
}

// Stage writes every item and returns their public URLs in item order. If any
// write fails, files already written by this call are deleted and a *StorageError is returned.
func (r *Reconciler) Stage(ctx context.Context, items []Item) ([]string, error) {
	urls := make([]string, 0, len(items))
	for _, it := range items {
		key := storage.NewKey(it.Prefix, it.File.Name)
		if err := r.put(ctx, key, it.File); err != nil {
			r.log.Error("store upload failed",
				zap.String("key", key),
				zap.String("filename", it.File.Name),
				zap.Error(err))
			r.Discard(ctx, urls)
			return nil, &StorageError{Key: key, Err: err}
		}
		r.log.Info("upload stored", zap.String("key", key), zap.Int64("size", it.File.Size))
		urls = append(urls, storage.PublicURL(key))
	}
	return urls, nil
}

func (r *Reconciler) put(ctx context.Context, key string, f Upload) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return r.store.Put(ctx, key, rc, f.Size, f.ContentType)
}

// Create stages items, then calls persist with their URLs. When persist fails every
// staged file is removed and a *PersistenceError wrapping the cause is returned.
func (r *Reconciler) Create(ctx context.Context, items []Item, persist func(urls []string) error) ([]string, error) {
	return r.Replace(ctx, items, nil, persist)
}

// Replace stages items, persists, and only then deletes the obsolete URLs the record
// no longer references. A persist failure removes the staged files and leaves obsolete
// files in place, since the record still points at them.
func (r *Reconciler) Replace(ctx context.Context, items []Item, obsolete []string, persist func(urls []string) error) ([]string, error) {
	urls, err := r.Stage(ctx, items)
	if err != nil {
		return nil, err
	}
	if err := persist(urls); err != nil {
		r.log.Error("persist after upload failed, removing staged files",
			zap.Strings("urls", urls),
			zap.Error(err))
		r.Discard(ctx, urls)
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Err: err}
	}
	r.Remove(ctx, obsolete, ReasonObsolete)
	return urls, nil
}

// Discard deletes files staged by a request that did not complete.
func (r *Reconciler) Discard(ctx context.Context, urls []string) {
	r.Remove(ctx, urls, ReasonCompensate)
}

// Remove deletes files best-effort. Failures are queued for the cleaner and never returned.
func (r *Reconciler) Remove(ctx context.Context, urls []string, reason string) {
	// a cancelled request must not skip its cleanup
	ctx = context.WithoutCancel(ctx)
	for _, u := range urls {
		key, err := storage.KeyFromURL(u)
		if err != nil {
			r.log.Warn("skip delete of foreign url", zap.String("url", u), zap.String("reason", reason))
			continue
		}
		if err := r.store.Delete(ctx, key); err != nil {
			r.log.Error("delete blob failed, queued for retry",
				zap.String("key", key),
				zap.String("reason", reason),
				zap.Error(err))
			if qerr := r.queue.Enqueue(ctx, key, reason, err); qerr != nil {
				r.log.Error("queue blob deletion failed", zap.String("key", key), zap.Error(qerr))
			}
			continue
		}
		r.log.Info("blob deleted", zap.String("key", key), zap.String("reason", reason))
	}
}
