package decisions

type createDecisionRequest struct {
	Title     string `json:"title"`
	Situation string `json:"situation"`
	Decision  string `json:"decision"`
	Reasoning string `json:"reasoning"`
}
