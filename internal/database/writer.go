package database

import "can-dbc-catalog/internal/models"

// Writer defines the interface for database writers
type Writer interface {
	// Start begins processing and writing records
	Start()

	// Write queues a parse record for writing
	Write(rec models.ParseRecord)

	// Close flushes pending records and releases the connection
	Close() error
}
