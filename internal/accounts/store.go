package accounts

import "context"

// Store persists the accounts of every user. Put must replace the list of
// one user atomically; Save does the same for a whole snapshot
type Store interface {
	Load(ctx context.Context) (map[string]Accounts, error)
	Save(ctx context.Context, data map[string]Accounts) error
	Get(ctx context.Context, userID string) (Accounts, error)
	Put(ctx context.Context, userID string, accs Accounts) error
	Close() error
}
