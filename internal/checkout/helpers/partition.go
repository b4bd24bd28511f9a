package helpers

import "github.com/angelmondragon/practicerx-backend/pkg/db/models"

// PartitionLines splits cart lines by destination, preserving cart order within each side.
func PartitionLines(lines []models.CartLine) (practice, patient []models.CartLine) {
	for _, line := range lines {
		if line.ShipsToPatient() {
			patient = append(patient, line)
			continue
		}
		practice = append(practice, line)
	}
	return practice, patient
}
