package controllers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"school-directory/middleware"
	"school-directory/models"
	"school-directory/storage"
	"school-directory/utils"

	"github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// multipart overhead allowed on top of the image ceiling for the text fields
const formOverhead = 1 << 20

// SchoolRepository is the persistence gateway as seen by the handlers.
type SchoolRepository interface {
	Ping(ctx context.Context) error
	Insert(ctx context.Context, s models.School) (int64, error)
	List(ctx context.Context) ([]models.SchoolSummary, error)
	Get(ctx context.Context, id int64) (models.School, error)
	Update(ctx context.Context, s models.School) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type SchoolController struct {
	Schools SchoolRepository
	Images  storage.ImageStore

	MaxImageBytes    int64
	ImageBasePath    string
	ImagePlaceholder string
}

func (sc SchoolController) CreateSchool() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.Logger(r)

		r.Body = http.MaxBytesReader(w, r.Body, sc.MaxImageBytes+formOverhead)
		if err := r.ParseMultipartForm(formOverhead); err != nil {
			logger.WithError(err).Error("Error parsing multipart form")
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				utils.RespondWithError(w, http.StatusRequestEntityTooLarge, models.Error{Message: "Error adding school: " + storage.ErrTooLarge.Error()})
				return
			}
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Error adding school: " + err.Error()})
			return
		}
		defer r.MultipartForm.RemoveAll()

		req := models.CreateSchoolRequest{
			Name:    r.FormValue("name"),
			Address: r.FormValue("address"),
			City:    r.FormValue("city"),
			State:   r.FormValue("state"),
			Contact: r.FormValue("contact"),
			EmailID: r.FormValue("email_id"),
		}
		if fields := utils.ValidateStruct(req); fields != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid school data", Errors: fields})
			return
		}

		// The image must be durable before a row can reference it.
		imagePath := ""
		file, header, err := r.FormFile("image")
		if err != nil && err != http.ErrMissingFile {
			logger.WithError(err).Error("Error retrieving image file")
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Error adding school: " + err.Error()})
			return
		}
		if file != nil {
			defer file.Close()

			imagePath, err = sc.Images.Store(r.Context(), file, header.Filename)
			if err != nil {
				logger.WithError(err).Error("Error storing school image")
				status := http.StatusInternalServerError
				if errors.Cause(err) == storage.ErrTooLarge {
					status = http.StatusRequestEntityTooLarge
				}
				utils.RespondWithError(w, status, models.Error{Message: "Error adding school: " + err.Error()})
				return
			}
		}

		id, err := sc.Schools.Insert(r.Context(), req.ToSchool(imagePath))
		if err != nil {
			logger.WithError(err).WithField("image", imagePath).Error("Database error")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error adding school: " + err.Error()})
			return
		}

		logger.WithField("id", id).Info("School added")
		utils.ResponseJSON(w, models.Created{Message: "School added successfully", ID: id})
	}
}

func (sc SchoolController) GetSchools() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.Logger(r)

		if err := sc.Schools.Ping(r.Context()); err != nil {
			logger.WithError(err).Error("Database connection failed")
			respondFetchError(w, err)
			return
		}

		schools, err := sc.Schools.List(r.Context())
		if err != nil {
			logger.WithError(err).Error("Error fetching schools")
			respondFetchError(w, err)
			return
		}
		if schools == nil {
			schools = []models.SchoolSummary{}
		}

		logger.WithField("count", len(schools)).Debug("Found schools")
		utils.ResponseJSON(w, models.SchoolList{
			Schools:    schools,
			Pagination: models.SinglePage(len(schools)),
		})
	}
}

func (sc SchoolController) UpdateSchool() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.Logger(r)

		var req models.UpdateSchoolRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.WithError(err).Error("JSON decode error")
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Error updating school: " + err.Error()})
			return
		}

		id, ok := utils.ParseID(req.ID.String())
		if !ok {
			utils.RespondMessage(w, http.StatusNotFound, "School not found")
			return
		}

		if fields := utils.ValidateStruct(req); fields != nil {
			utils.RespondWithError(w, http.StatusBadRequest, models.Error{Message: "Invalid school data", Errors: fields})
			return
		}

		affected, err := sc.Schools.Update(r.Context(), req.ToSchool(id))
		if err != nil {
			logger.WithError(err).WithField("id", id).Error("Update error")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error updating school: " + err.Error()})
			return
		}
		if affected == 0 {
			utils.RespondMessage(w, http.StatusNotFound, "School not found")
			return
		}

		utils.RespondMessage(w, http.StatusOK, "School updated successfully")
	}
}

func (sc SchoolController) DeleteSchool() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := middleware.Logger(r)

		id, ok := utils.ParseID(r.URL.Query().Get("id"))
		if !ok {
			utils.RespondMessage(w, http.StatusNotFound, "School not found")
			return
		}

		affected, err := sc.Schools.Delete(r.Context(), id)
		if err != nil {
			logger.WithError(err).WithField("id", id).Error("Delete error")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error deleting school: " + err.Error()})
			return
		}
		if affected == 0 {
			utils.RespondMessage(w, http.StatusNotFound, "School not found")
			return
		}

		// TODO: remove the stored image once the image store can delete by reference.
		utils.RespondMessage(w, http.StatusOK, "School deleted successfully")
	}
}

// SchoolImage redirects to the fetchable URL of a school's image, or to the
// placeholder when the school has none.
func (sc SchoolController) SchoolImage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := utils.ParseID(mux.Vars(r)["id"])
		if !ok {
			utils.RespondMessage(w, http.StatusNotFound, "School not found")
			return
		}

		school, err := sc.Schools.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				utils.RespondMessage(w, http.StatusNotFound, "School not found")
				return
			}
			middleware.Logger(r).WithError(err).WithField("id", id).Error("Error fetching school")
			utils.RespondWithError(w, http.StatusInternalServerError, models.Error{Message: "Error fetching school: " + err.Error()})
			return
		}

		target := storage.ResolveImageURL(school.Image, sc.ImageBasePath, sc.ImagePlaceholder)
		http.Redirect(w, r, target, http.StatusFound)
	}
}

func respondFetchError(w http.ResponseWriter, err error) {
	utils.RespondWithError(w, http.StatusInternalServerError, models.Error{
		Message: "Error fetching schools",
		Error:   err.Error(),
		Code:    errorCode(err),
	})
}

// errorCode extracts the driver specific error code, if any.
func errorCode(err error) string {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return strconv.Itoa(int(myErr.Number))
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "ETIMEDOUT"
	}
	return ""
}

// Health reports whether the database answers.
func (sc SchoolController) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sc.Schools.Ping(r.Context()); err != nil {
			middleware.Logger(r).WithError(err).Warn("Health check failed")
			utils.RespondMessage(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		utils.RespondMessage(w, http.StatusOK, "ok")
	}
}
