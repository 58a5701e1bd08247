package domain

import (
	"time"
)

// Project represents a single editable project owned by a user.
// It is intentionally storage-agnostic and used across repository and HTTP layers.
type Project struct {
	ID          string    `json:"id" firestore:"id"`
	OwnerID     string    `json:"owner_id" firestore:"owner_id"`
	Name        string    `json:"name" firestore:"name"`
	Description string    `json:"description" firestore:"description"`
	Temporary   bool      `json:"is_temporary" firestore:"is_temporary"`
	Files       []File    `json:"files" firestore:"files"`
	CreatedAt   time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" firestore:"updated_at"`
}

// File is a text blob inside a project. Path is slash-delimited and includes
// the file name; it only drives the derived tree view.
type File struct {
	ID        string    `json:"id" firestore:"id"`
	Name      string    `json:"name" firestore:"name"`
	Path      string    `json:"path" firestore:"path"`
	Content   string    `json:"content" firestore:"content"`
	Language  string    `json:"language" firestore:"language"`
	CreatedAt time.Time `json:"created_at" firestore:"created_at"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at"`
}

// ProjectSummary is the list view of a project, without file contents.
type ProjectSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Temporary   bool      `json:"is_temporary"`
	FileCount   int       `json:"file_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProjectInput carries the fields needed to create a project.
type CreateProjectInput struct {
	Name        string
	Description string
	Template    string
	Temporary   bool
}

// UpdateProjectInput carries optional metadata changes.
type UpdateProjectInput struct {
	Name        *string
	Description *string
}

func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Temporary:   p.Temporary,
		FileCount:   len(p.Files),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// Clone returns a deep copy; Files is the only reference field.
func (p *Project) Clone() *Project {
	cp := *p
	if p.Files != nil {
		cp.Files = make([]File, len(p.Files))
		copy(cp.Files, p.Files)
	}
	return &cp
}

// FileByID returns the file with id and its index, or nil and -1.
func (p *Project) FileByID(id string) (*File, int) {
	for i := range p.Files {
		if p.Files[i].ID == id {
			return &p.Files[i], i
		}
	}
	return nil, -1
}

// FileByPath returns the file at path, or nil.
func (p *Project) FileByPath(path string) *File {
	path = NormalizePath(path)
	for i := range p.Files {
		if p.Files[i].Path == path {
			return &p.Files[i]
		}
	}
	return nil
}

// AddFile appends f, rejecting duplicate ids and paths.
func (p *Project) AddFile(f File, now time.Time) error {
	if existing, _ := p.FileByID(f.ID); existing != nil {
		return ErrFileExists
	}
	if p.FileByPath(f.Path) != nil {
		return ErrFileExists
	}
	p.Files = append(p.Files, f)
	p.UpdatedAt = now
	return nil
}

// SaveFileContent replaces one file's content. No other file is touched.
func (p *Project) SaveFileContent(fileID, content string, now time.Time) (*File, error) {
	f, _ := p.FileByID(fileID)
	if f == nil {
		return nil, ErrFileNotFound
	}
	f.Content = content
	f.UpdatedAt = now
	p.UpdatedAt = now
	out := *f
	return &out, nil
}

// MoveFile changes a file's path, re-deriving its name and language.
func (p *Project) MoveFile(fileID, newPath string, now time.Time) (*File, error) {
	newPath = NormalizePath(newPath)
	if err := ValidatePath(newPath); err != nil {
		return nil, err
	}

	f, _ := p.FileByID(fileID)
	if f == nil {
		return nil, ErrFileNotFound
	}
	if other := p.FileByPath(newPath); other != nil && other.ID != fileID {
		return nil, ErrFileExists
	}

	f.Path = newPath
	f.Name = BaseName(newPath)
	f.Language = LanguageFor(f.Name)
	f.UpdatedAt = now
	p.UpdatedAt = now
	out := *f
	return &out, nil
}

// RemoveFile deletes one file, keeping the order of the rest.
func (p *Project) RemoveFile(fileID string, now time.Time) (File, error) {
	f, idx := p.FileByID(fileID)
	if f == nil {
		return File{}, ErrFileNotFound
	}
	removed := *f
	p.Files = append(p.Files[:idx], p.Files[idx+1:]...)
	p.UpdatedAt = now
	return removed, nil
}
