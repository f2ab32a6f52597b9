// Package api is the HTTP façade: thin request routing over the job
// orchestrator, the versioned stores and the external collaborators.
package api

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/coordii/coordii-backend/advisory"
	"github.com/coordii/coordii-backend/config"
	"github.com/coordii/coordii-backend/importer"
	"github.com/coordii/coordii-backend/jobs"
	"github.com/coordii/coordii-backend/models"
	"github.com/coordii/coordii-backend/storage"
	"github.com/coordii/coordii-backend/store"
	"github.com/coordii/coordii-backend/utils"
	"github.com/coordii/coordii-backend/weather"
)

// Server holds every dependency the handlers need. It is constructed once in
// main; handlers are methods on it and share no package-level state.
type Server struct {
	Cfg *config.Config

	Accounts  *mongo.Collection
	Feedbacks *mongo.Collection

	Profiles    store.Records[*models.Profile]
	Garments    store.Records[*models.Garment]
	Weather     store.Records[*models.WeatherSnapshot]
	Coordinates store.Records[*models.Coordinate]
	TryOns      store.Records[*models.TryOn]

	Jobs     *jobs.Service
	Storage  *storage.S3Store
	Advisory advisory.Client
	Geocoder *weather.Geocoder
	Forecast *weather.OpenWeather
	Importer *importer.Importer
	Mailer   *utils.Mailer
}
