package workflow

// IntegrationHealth summarizes whether one collaborator is usable.
type IntegrationHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// HealthyIntegration constructs a ready IntegrationHealth record.
func HealthyIntegration(name string) IntegrationHealth {
	return IntegrationHealth{Name: name, Ready: true}
}

// UnhealthyIntegration constructs an unready record with context detail.
func UnhealthyIntegration(name, detail string) IntegrationHealth {
	return IntegrationHealth{Name: name, Ready: false, Detail: detail}
}

// Health reports which collaborators the service was built with.
func (s *Service) Health() []IntegrationHealth {
	check := func(name string, present bool) IntegrationHealth {
		if present {
			return HealthyIntegration(name)
		}
		return UnhealthyIntegration(name, "not configured")
	}
	return []IntegrationHealth{
		check("extractor", s.extractor != nil),
		check("crm", s.crm != nil),
		check("knowledge_base", s.kb != nil),
	}
}
