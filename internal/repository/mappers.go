package repository

import "venuebook/internal/domain"

func toDomainResource(m resourceModel) *domain.Resource {
	return &domain.Resource{
		ID:        m.ID,
		TenantID:  m.TenantID,
		Name:      m.Name,
		Kind:      domain.ResourceKind(m.Kind),
		RateKind:  domain.RateKind(m.RateKind),
		Rate:      m.Rate,
		Currency:  m.Currency,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toResourceModel(r *domain.Resource) resourceModel {
	return resourceModel{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Name:      r.Name,
		Kind:      string(r.Kind),
		RateKind:  string(r.RateKind),
		Rate:      r.Rate,
		Currency:  r.Currency,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toDomainReservation(m reservationModel) *domain.Reservation {
	return &domain.Reservation{
		ID:                  m.ID,
		TenantID:            m.TenantID,
		ResourceID:          m.ResourceID,
		ProfessionalID:      m.ProfessionalID,
		CustomerName:        m.CustomerName,
		CustomerID:          m.CustomerID,
		StartTime:           m.StartTime.UTC(),
		EndTime:             m.EndTime.UTC(),
		Status:              domain.ReservationStatus(m.Status),
		Kind:                domain.BookingKind(m.Kind),
		ResourceSubtotal:    m.ResourceSubtotal,
		GrandTotal:          m.GrandTotal,
		ExternalCalendarRef: m.ExternalCalendarRef,
		Metadata:            m.Metadata,
		CreatedBy:           m.CreatedBy,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		CancelledAt:         m.CancelledAt,
		FinalizedAt:         m.FinalizedAt,
	}
}

func toReservationModel(r *domain.Reservation) reservationModel {
	return reservationModel{
		ID:                  r.ID,
		TenantID:            r.TenantID,
		ResourceID:          r.ResourceID,
		ProfessionalID:      r.ProfessionalID,
		CustomerName:        r.CustomerName,
		CustomerID:          r.CustomerID,
		StartTime:           r.StartTime.UTC(),
		EndTime:             r.EndTime.UTC(),
		Status:              string(r.Status),
		Kind:                string(r.Kind),
		ResourceSubtotal:    r.ResourceSubtotal,
		GrandTotal:          r.GrandTotal,
		ExternalCalendarRef: r.ExternalCalendarRef,
		Metadata:            r.Metadata,
		CreatedBy:           r.CreatedBy,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		CancelledAt:         r.CancelledAt,
		FinalizedAt:         r.FinalizedAt,
	}
}

func toDomainReservations(rows []reservationModel) []domain.Reservation {
	out := make([]domain.Reservation, 0, len(rows))
	for _, m := range rows {
		out = append(out, *toDomainReservation(m))
	}
	return out
}
