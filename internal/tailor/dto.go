package tailor

// TailorResponse is the success body of POST /api/tailor-resume.
type TailorResponse struct {
	Tailored string `json:"tailored"`
}
