package httpserver

import (
	"embed"
	"io/fs"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v2"
	fiberfs "github.com/gofiber/fiber/v2/middleware/filesystem"
)

// landingAssets contains the static landing page served at the site root.
//
//go:embed static
var landingAssets embed.FS

const landingRoot = "static"

func mountLandingPage(app *fiber.App) {
	dist, err := fs.Sub(landingAssets, landingRoot)
	if err != nil {
		log.Printf("landing assets not embedded: %v", err)
		return
	}

	app.Use("/", fiberfs.New(fiberfs.Config{
		Root:         http.FS(dist),
		PathPrefix:   "",
		Index:        "index.html",
		NotFoundFile: "index.html",
		Browse:       false,
	}))
}
