package sqlstore

import (
	"time"

	"github.com/goliatone/go-resource-broker/core"
	"github.com/uptrace/bun"
)

type contentEntryRecord struct {
	bun.BaseModel `bun:"table:broker_content_entries,alias:bce"`

	ID          string    `bun:"id,pk"`
	Reference   string    `bun:"reference,notnull"`
	DisplayName string    `bun:"display_name,notnull"`
	MimeType    string    `bun:"mime_type,notnull"`
	Path        string    `bun:"path,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// ContentEntry maps an opaque content reference to the file that backs it.
type ContentEntry struct {
	ID          string
	Reference   string
	DisplayName string
	MimeType    string
	Path        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func newContentEntryRecord(in ContentEntry, id string, now time.Time) *contentEntryRecord {
	return &contentEntryRecord{
		ID:          id,
		Reference:   in.Reference,
		DisplayName: in.DisplayName,
		MimeType:    in.MimeType,
		Path:        in.Path,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (r *contentEntryRecord) toDomain() ContentEntry {
	if r == nil {
		return ContentEntry{}
	}
	return ContentEntry{
		ID:          r.ID,
		Reference:   r.Reference,
		DisplayName: r.DisplayName,
		MimeType:    r.MimeType,
		Path:        r.Path,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type pendingDispatchRecord struct {
	bun.BaseModel `bun:"table:broker_pending_dispatches,alias:bpd"`

	ID                string              `bun:"id,pk"`
	Token             int64               `bun:"token,notnull"`
	ContentTypeFilter string              `bun:"content_type_filter,notnull"`
	IncludeCapture    bool                `bun:"include_capture,notnull"`
	IncludeBrowse     bool                `bun:"include_browse,notnull"`
	ChooserTitle      string              `bun:"chooser_title,notnull"`
	SinkLocator       string              `bun:"sink_locator,notnull"`
	Target            core.DispatchTarget `bun:"target,type:jsonb,notnull"`
	State             string              `bun:"state,notnull"`
	CreatedAt         time.Time           `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time           `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newPendingDispatchRecord(in core.PendingDispatch, id string, now time.Time) *pendingDispatchRecord {
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return &pendingDispatchRecord{
		ID:                id,
		Token:             in.Token,
		ContentTypeFilter: in.Request.ContentTypeFilter,
		IncludeCapture:    in.Request.IncludeCaptureProviders,
		IncludeBrowse:     in.Request.IncludeBrowseProviders,
		ChooserTitle:      in.Request.ChooserTitle,
		SinkLocator:       in.Sink.PreallocatedLocator,
		Target:            in.Target,
		State:             string(in.State),
		CreatedAt:         createdAt.UTC(),
		UpdatedAt:         now,
	}
}

func (r *pendingDispatchRecord) toDomain() core.PendingDispatch {
	if r == nil {
		return core.PendingDispatch{}
	}
	return core.PendingDispatch{
		Token: r.Token,
		Request: core.ResourceRequest{
			ContentTypeFilter:       r.ContentTypeFilter,
			IncludeCaptureProviders: r.IncludeCapture,
			IncludeBrowseProviders:  r.IncludeBrowse,
			CorrelationToken:        r.Token,
			ChooserTitle:            r.ChooserTitle,
		},
		Sink: core.PendingOutputSink{
			CorrelationToken:    r.Token,
			PreallocatedLocator: r.SinkLocator,
		},
		Target:    r.Target,
		State:     core.DispatchState(r.State),
		CreatedAt: r.CreatedAt,
	}
}
