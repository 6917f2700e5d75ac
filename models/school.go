package models

// School is one institution listing stored in the schools table.
type School struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Contact string `json:"contact"` // kept as text to preserve leading zeros
	Image   string `json:"image"`   // absolute URL, bare file name or ""
	EmailID string `json:"email_id"`
}

// SchoolSummary is the projection returned by the listing.
type SchoolSummary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Image   string `json:"image"`
}

// CreateSchoolRequest holds the text fields of the multipart create form.
type CreateSchoolRequest struct {
	Name    string `json:"name" validate:"required,notblank"`
	Address string `json:"address" validate:"required,notblank"`
	City    string `json:"city" validate:"required,notblank"`
	State   string `json:"state" validate:"required,notblank"`
	Contact string `json:"contact" validate:"required,notblank"`
	EmailID string `json:"email_id" validate:"required,email"`
}

// ToSchool builds the row to insert; image is filled in by the caller.
func (r CreateSchoolRequest) ToSchool(image string) School {
	return School{
		Name:    r.Name,
		Address: r.Address,
		City:    r.City,
		State:   r.State,
		Contact: r.Contact,
		Image:   image,
		EmailID: r.EmailID,
	}
}

// UpdateSchoolRequest is the JSON body of PUT /schools. Image is not updatable.
type UpdateSchoolRequest struct {
	ID      Text   `json:"id"`
	Name    string `json:"name" validate:"required,notblank"`
	Address string `json:"address" validate:"required,notblank"`
	City    string `json:"city" validate:"required,notblank"`
	State   string `json:"state" validate:"required,notblank"`
	Contact Text   `json:"contact" validate:"required,notblank"`
	EmailID string `json:"email_id" validate:"required,email"`
}

// ToSchool builds the row to update from the request and the parsed id.
func (r UpdateSchoolRequest) ToSchool(id int64) School {
	return School{
		ID:      id,
		Name:    r.Name,
		Address: r.Address,
		City:    r.City,
		State:   r.State,
		Contact: string(r.Contact),
		EmailID: r.EmailID,
	}
}

// Pagination is the envelope reported next to the school list.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalSchools int  `json:"totalSchools"`
	HasNext      bool `json:"hasNext"`
	HasPrev      bool `json:"hasPrev"`
}

// SinglePage reports every row on one page.
func SinglePage(total int) Pagination {
	return Pagination{
		CurrentPage:  1,
		TotalPages:   1,
		TotalSchools: total,
	}
}

// SchoolList is the response body of GET /schools.
type SchoolList struct {
	Schools    []SchoolSummary `json:"schools"`
	Pagination Pagination      `json:"pagination"`
}

// Created is the response body of a successful create.
type Created struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}
