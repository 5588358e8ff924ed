package sqlstore

import (
	"strconv"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func contentEntryHandlers() repository.ModelHandlers[*contentEntryRecord] {
	return repository.ModelHandlers[*contentEntryRecord]{
		NewRecord: func() *contentEntryRecord {
			return &contentEntryRecord{}
		},
		GetID: func(record *contentEntryRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *contentEntryRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "reference"
		},
		GetIdentifierValue: func(record *contentEntryRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.Reference)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}

func pendingDispatchHandlers() repository.ModelHandlers[*pendingDispatchRecord] {
	return repository.ModelHandlers[*pendingDispatchRecord]{
		NewRecord: func() *pendingDispatchRecord {
			return &pendingDispatchRecord{}
		},
		GetID: func(record *pendingDispatchRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *pendingDispatchRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "token"
		},
		GetIdentifierValue: func(record *pendingDispatchRecord) string {
			if record == nil {
				return ""
			}
			return strconv.FormatInt(record.Token, 10)
		},
	}
}
