// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/coachhub/internal/app/system/filestore"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and storage back-ends for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Files is the document store for uploads (local disk or S3).
	Files filestore.Store
	// LocalFiles is set when Files is the local backend, so BuildHandler can
	// serve its contents.
	LocalFiles *filestore.Local
}
