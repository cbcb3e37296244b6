package wa

import (
	"context"

	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// NewClient builds a whatsmeow client backed by a SQLite session store so
// that pairing credentials survive restarts.
func NewClient(ctx context.Context, dsn, logLevel string) (*whatsmeow.Client, error) {
	dbLog := waLog.Stdout("Session", logLevel, true)
	container, err := sqlstore.New(ctx, "sqlite3", dsn, dbLog)
	if err != nil {
		return nil, err
	}
	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, err
	}
	clientLog := waLog.Stdout("Client", logLevel, true)
	return whatsmeow.NewClient(deviceStore, clientLog), nil
}
