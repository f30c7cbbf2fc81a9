package documents

type HealthDocument struct {
	Status string `json:"status"`
}
