// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backends created in ConnectDB and passed to
// EnsureSchema, Startup, BuildHandler and Shutdown.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// PhotoStorage holds report and issue photos.
	PhotoStorage storage.Store
}
