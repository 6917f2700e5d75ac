package routes

import (
	"net/http"
	"strings"

	"school-directory/controllers"
	"school-directory/middleware"
	"school-directory/models"
	"school-directory/utils"

	"github.com/gorilla/mux"
)

// Options controls the optional parts of the router.
type Options struct {
	// StaticDir, when set, is served read-only under the image base path.
	StaticDir string
}

func NewRouter(sc controllers.SchoolController, opts Options) *mux.Router {
	router := mux.NewRouter()
	// router.Use only wraps matched routes, so the fallbacks get the chain directly.
	router.MethodNotAllowedHandler = chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	}))
	router.NotFoundHandler = chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithError(w, http.StatusNotFound, models.Error{Message: "Not found"})
	}))

	router.HandleFunc("/schools", sc.CreateSchool()).Methods("POST")
	router.HandleFunc("/schools", sc.GetSchools()).Methods("GET")
	router.HandleFunc("/schools", sc.UpdateSchool()).Methods("PUT")
	router.HandleFunc("/schools", sc.DeleteSchool()).Methods("DELETE")
	router.HandleFunc("/schools/{id:[0-9]+}/image", sc.SchoolImage()).Methods("GET")
	router.HandleFunc("/healthz", sc.Health()).Methods("GET")

	if opts.StaticDir != "" {
		prefix := strings.TrimRight(sc.ImageBasePath, "/") + "/"
		router.PathPrefix(prefix).Handler(
			http.StripPrefix(prefix, http.FileServer(http.Dir(opts.StaticDir))),
		).Methods("GET", "HEAD")
	}

	router.Use(middleware.RequestID, middleware.AccessLog, middleware.Recover)
	return router
}

func chain(h http.Handler) http.Handler {
	return middleware.RequestID(middleware.AccessLog(middleware.Recover(h)))
}
