package config

// PublicConfig is the subset of settings clients need to render the catalog,
// such as page sizes and the renewal window.
type PublicConfig struct {
	BooksPageSize       int `json:"books_page_size"`
	LoansPageSize       int `json:"loans_page_size"`
	RenewalDefaultWeeks int `json:"renewal_default_weeks"`
	RenewalMaxWeeks     int `json:"renewal_max_weeks"`
}

type Service struct {
	config *Config
}

func NewService(cfg *Config) *Service {
	return &Service{config: cfg}
}

func (s *Service) RetrievePublicConfig() *PublicConfig {
	return &PublicConfig{
		BooksPageSize:       s.config.BooksPageSize,
		LoansPageSize:       s.config.LoansPageSize,
		RenewalDefaultWeeks: s.config.RenewalDefaultWeeks,
		RenewalMaxWeeks:     s.config.RenewalMaxWeeks,
	}
}
