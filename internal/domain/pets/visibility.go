package pets

import "pet-adoption-api/internal/ports/auth"

// CanSeeInternalNotes es el único predicado que decide si las notas internas
// salen del servicio: admin, o staff de la rescue dueña de la mascota.
func CanSeeInternalNotes(viewer auth.Claims, p Pet) bool {
	return viewer.CanManageRescue(p.RescueID)
}

// Redact devuelve la mascota tal como la puede ver viewer.
func Redact(viewer auth.Claims, p Pet) Pet {
	if !CanSeeInternalNotes(viewer, p) {
		p.InternalNotes = ""
	}
	if p.Gallery != nil {
		p.Gallery = append([]string(nil), p.Gallery...)
	}
	return p
}

func RedactAll(viewer auth.Claims, items []Pet) []Pet {
	out := make([]Pet, 0, len(items))
	for _, p := range items {
		out = append(out, Redact(viewer, p))
	}
	return out
}
