package converter

import (
	"irportal/internal/entity/db"
	"irportal/internal/entity/dto"
)

// ApplicationToItem converts an application row to its response shape.
func ApplicationToItem(a *db.InvestorApplication) dto.ApplicationItem {
	if a == nil {
		return dto.ApplicationItem{}
	}
	return dto.ApplicationItem{
		ID:            a.ID,
		UserID:        a.UserID,
		Pitch:         a.Pitch,
		Accreditation: a.Accreditation,
		Status:        a.Status,
		DecidedBy:     a.DecidedBy,
		DecidedAt:     a.DecidedAt,
		SubmittedAt:   a.SubmittedAt,
		HasEvidence:   a.EvidencePath != "",
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// ApplicationRowToItem converts a joined admin listing row.
func ApplicationRowToItem(r *db.ApplicationRow) dto.ApplicationItem {
	if r == nil {
		return dto.ApplicationItem{}
	}
	item := ApplicationToItem(&r.InvestorApplication)
	item.Email = r.Email
	item.FirstName = r.FirstName
	item.LastName = r.LastName
	item.DecidedByEmail = r.DecidedByEmail
	return item
}

// ApplicationRowsToItems converts a slice of joined rows.
func ApplicationRowsToItems(rows []db.ApplicationRow) []dto.ApplicationItem {
	items := make([]dto.ApplicationItem, len(rows))
	for i := range rows {
		items[i] = ApplicationRowToItem(&rows[i])
	}
	return items
}
