package app

import (
	"visualeditor/internal/domain"
	"visualeditor/internal/editor"
)

// ============================================================
// Documents
// ============================================================

func (a *App) ListDocuments() ([]domain.Document, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	return a.editors.List(a.ctx)
}

func (a *App) CreateDocument(name string) (*domain.Document, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	return a.editors.Create(a.ctx, name)
}

// OpenDocument starts (or resumes) the editing session and returns the value
// to render.
func (a *App) OpenDocument(id string) (domain.Value, error) {
	if err := a.ready(); err != nil {
		return domain.Value{}, err
	}
	return a.editors.Open(a.ctx, id)
}

func (a *App) SaveDocument(id string) error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.editors.Save(a.ctx, id)
}

func (a *App) CloseDocument(id string) error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.editors.Close(a.ctx, id)
}

func (a *App) DeleteDocument(id string) error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.editors.Delete(a.ctx, id)
}

func (a *App) GetValue(id string) (domain.Value, error) {
	if err := a.ready(); err != nil {
		return domain.Value{}, err
	}
	return a.editors.Value(id)
}

// ListComponents returns the palette shown in the sidebar.
func (a *App) ListComponents() []domain.Component {
	if a.editors == nil || a.editors.Registry() == nil {
		return []domain.Component{}
	}
	return a.editors.Registry().List()
}

// ============================================================
// Import / Export
// ============================================================

func (a *App) ImportJSON(id, data string) error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.editors.ImportJSON(a.ctx, id, []byte(data))
}

func (a *App) ExportJSON(id string) (string, error) {
	if err := a.ready(); err != nil {
		return "", err
	}
	var out []byte
	err := a.editors.With(id, func(e *editor.Editor) error {
		var err error
		out, err = e.ExportJSON()
		return err
	})
	return string(out), err
}

// ============================================================
// Snapshot journal
// ============================================================

func (a *App) ListSnapshots(id string) ([]domain.Snapshot, error) {
	if err := a.ready(); err != nil {
		return nil, err
	}
	return a.editors.Snapshots(a.ctx, id)
}

func (a *App) RestoreSnapshot(id string, seq int64) error {
	if err := a.ready(); err != nil {
		return err
	}
	return a.editors.RestoreSnapshot(a.ctx, id, seq)
}
