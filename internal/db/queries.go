package query

const (
	CreateSubscribersTable = `
	CREATE TABLE IF NOT EXISTS subscribers (
		id TEXT PRIMARY KEY,
		phone TEXT NOT NULL,
		first_message TEXT,
		subscribed_at INTEGER NOT NULL
	);
	`

	CreateMessagesTable = `
	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subscriber_id TEXT NOT NULL,
		text TEXT,
		received_at INTEGER NOT NULL,
		FOREIGN KEY (subscriber_id) REFERENCES subscribers(id)
	);

	CREATE INDEX IF NOT EXISTS idx_messages_subscriber
	ON messages(subscriber_id, received_at);
	`

	InsertSubscriberIfAbsent = `
	INSERT OR IGNORE INTO subscribers
	(id, phone, first_message, subscribed_at)
	VALUES (?, ?, ?, ?);
	`

	InsertMessage = `
	INSERT INTO messages
	(subscriber_id, text, received_at)
	VALUES (?, ?, ?);
	`

	SelectAllSubscribers = `
	SELECT id, phone, first_message, subscribed_at
	FROM subscribers
	ORDER BY rowid;
	`

	SelectMessagesBySubscriber = `
	SELECT subscriber_id, text, received_at
	FROM messages
	WHERE subscriber_id = ?
	ORDER BY received_at, id;
	`

	CountSubscribers = `
	SELECT COUNT(*) FROM subscribers;
	`

	CountMessages = `
	SELECT COUNT(*) FROM messages;
	`
)
