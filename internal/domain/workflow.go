package domain

// Domain identifies which entity kind a workflow governs.
type Domain string

const (
	DomainProperty  Domain = "property"
	DomainTenancy   Domain = "tenancy"
	DomainVendor    Domain = "vendor"
	DomainApplicant Domain = "applicant"
)

// Status is one value from a domain-specific closed enumeration.
// Every record carries exactly one current status at a time.
type Status string

// Property statuses.
const (
	PropertyAvailable   Status = "available"
	PropertyUnderOffer  Status = "under_offer"
	PropertyLetAgreed   Status = "let_agreed"
	PropertyLetBy       Status = "let_by"
	PropertyTenanted    Status = "tenanted"
	PropertyBlocked     Status = "blocked"
	PropertyMaintenance Status = "maintenance"
	PropertySSTC        Status = "sstc"
	PropertyExchanged   Status = "exchanged"
	PropertyCompleted   Status = "completed"
)

// Tenancy statuses.
const (
	TenancyDraft         Status = "draft"
	TenancyOfferAccepted Status = "offer_accepted"
	TenancyReferencing   Status = "referencing"
	TenancyDocumentation Status = "documentation"
	TenancyMoveInPrep    Status = "move_in_prep"
	TenancyActive        Status = "active"
	TenancyEnded         Status = "ended"
	TenancyTerminated    Status = "terminated"
)

// Applicant statuses.
const (
	ApplicantNew            Status = "new"
	ApplicantQualified      Status = "qualified"
	ApplicantViewingBooked  Status = "viewing_booked"
	ApplicantOfferSubmitted Status = "offer_submitted"
	ApplicantOfferAccepted  Status = "offer_accepted"
	ApplicantReferences     Status = "references"
	ApplicantLetAgreed      Status = "let_agreed"
	ApplicantTenancyStarted Status = "tenancy_started"
	ApplicantArchived       Status = "archived"
)

// Vendor statuses.
const (
	VendorPendingVerification Status = "pending_verification"
	VendorActive              Status = "active"
	VendorInactive            Status = "inactive"
	VendorInstructed          Status = "instructed"
	VendorSSTC                Status = "sstc"
	VendorCompleted           Status = "completed"
)

// Side-effect handler names bound to transitions in the registry.
// Implementations are registered on the executor by name.
const (
	EffectCascadePropertyAvailable = "cascade_property_available"
	EffectClearPropertyLetDate     = "clear_property_let_date"
	EffectMarkPropertyTenanted     = "mark_property_tenanted"
	EffectSetPropertyLetDate       = "set_property_let_date"
	EffectMarkPropertySSTC         = "mark_property_sstc"
	EffectMarkPropertyCompleted    = "mark_property_completed"
)

type transitionKey struct {
	domain Domain
	from   Status
	to     Status
}

// Registry is the closed-world mapping from a domain to its valid
// statuses, legal transition graph, and side-effect bindings. It is
// built once at startup and never mutated afterwards, so concurrent
// reads need no synchronization.
type Registry struct {
	domains     []Domain
	initial     map[Domain]Status
	transitions map[Domain]map[Status][]Status
	effects     map[transitionKey][]string
}

// NewRegistry builds the canonical registry for the four agency domains.
func NewRegistry() *Registry {
	r := &Registry{
		domains: []Domain{DomainProperty, DomainTenancy, DomainVendor, DomainApplicant},
		initial: map[Domain]Status{
			DomainProperty:  PropertyAvailable,
			DomainTenancy:   TenancyDraft,
			DomainVendor:    VendorPendingVerification,
			DomainApplicant: ApplicantNew,
		},
		transitions: map[Domain]map[Status][]Status{
			DomainProperty: {
				PropertyAvailable:   {PropertyUnderOffer, PropertyLetAgreed, PropertyBlocked, PropertyMaintenance},
				PropertyUnderOffer:  {PropertySSTC, PropertyAvailable},
				PropertySSTC:        {PropertyExchanged, PropertyAvailable},
				PropertyExchanged:   {PropertyCompleted},
				PropertyLetAgreed:   {PropertyLetBy, PropertyTenanted, PropertyAvailable},
				PropertyLetBy:       {PropertyTenanted},
				PropertyTenanted:    {PropertyAvailable},
				PropertyBlocked:     {PropertyAvailable},
				PropertyMaintenance: {PropertyAvailable},
				PropertyCompleted:   {},
			},
			DomainTenancy: {
				TenancyDraft:         {TenancyOfferAccepted},
				TenancyOfferAccepted: {TenancyReferencing},
				TenancyReferencing:   {TenancyDocumentation},
				TenancyDocumentation: {TenancyMoveInPrep},
				TenancyMoveInPrep:    {TenancyActive},
				TenancyActive:        {TenancyEnded, TenancyTerminated},
				TenancyEnded:         {},
				TenancyTerminated:    {},
			},
			DomainApplicant: {
				ApplicantNew:            {ApplicantQualified, ApplicantArchived},
				ApplicantQualified:      {ApplicantViewingBooked, ApplicantArchived},
				ApplicantViewingBooked:  {ApplicantOfferSubmitted, ApplicantArchived},
				ApplicantOfferSubmitted: {ApplicantOfferAccepted, ApplicantArchived},
				ApplicantOfferAccepted:  {ApplicantReferences, ApplicantArchived},
				ApplicantReferences:     {ApplicantLetAgreed, ApplicantArchived},
				ApplicantLetAgreed:      {ApplicantTenancyStarted, ApplicantArchived},
				ApplicantTenancyStarted: {ApplicantArchived},
				ApplicantArchived:       {},
			},
			DomainVendor: {
				VendorPendingVerification: {VendorActive, VendorInactive},
				VendorActive:              {VendorInstructed, VendorInactive},
				VendorInactive:            {VendorActive},
				VendorInstructed:          {VendorSSTC},
				VendorSSTC:                {VendorCompleted},
				VendorCompleted:           {},
			},
		},
		effects: map[transitionKey][]string{
			{DomainTenancy, TenancyActive, TenancyEnded}:      {EffectCascadePropertyAvailable, EffectClearPropertyLetDate},
			{DomainTenancy, TenancyActive, TenancyTerminated}: {EffectCascadePropertyAvailable, EffectClearPropertyLetDate},
			{DomainTenancy, TenancyMoveInPrep, TenancyActive}: {EffectMarkPropertyTenanted, EffectSetPropertyLetDate},
			{DomainVendor, VendorInstructed, VendorSSTC}:      {EffectMarkPropertySSTC},
			{DomainVendor, VendorSSTC, VendorCompleted}:       {EffectMarkPropertyCompleted},
		},
	}
	return r
}

// Domains returns the registered domains in registration order.
func (r *Registry) Domains() []Domain {
	out := make([]Domain, len(r.domains))
	copy(out, r.domains)
	return out
}

// IsRegistered reports whether d is one of the governed domains.
func (r *Registry) IsRegistered(d Domain) bool {
	_, ok := r.transitions[d]
	return ok
}

// InitialStatus returns the status a new record starts in for d.
func (r *Registry) InitialStatus(d Domain) Status {
	return r.initial[d]
}

// Statuses returns every status that appears in d's transition graph.
func (r *Registry) Statuses(d Domain) []Status {
	graph, ok := r.transitions[d]
	if !ok {
		return nil
	}
	out := make([]Status, 0, len(graph))
	for s := range graph {
		out = append(out, s)
	}
	return out
}

// ValidTransitions returns the statuses reachable from current in one
// hop. An unrecognized status has no legal transitions.
func (r *Registry) ValidTransitions(d Domain, current Status) []Status {
	graph, ok := r.transitions[d]
	if !ok {
		return nil
	}
	next, ok := graph[current]
	if !ok {
		return nil
	}
	out := make([]Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether (from → to) is listed in d's table.
// Equal from/to is legal only if explicitly listed; no table lists it.
func (r *Registry) CanTransition(d Domain, from, to Status) bool {
	for _, s := range r.ValidTransitions(d, from) {
		if s == to {
			return true
		}
	}
	return false
}

// SideEffects returns the handler names bound to the exact
// (domain, from, to) triple, in execution order. There is no wildcard
// or fallback matching.
func (r *Registry) SideEffects(d Domain, from, to Status) []string {
	names, ok := r.effects[transitionKey{d, from, to}]
	if !ok {
		return nil
	}
	out := make([]string, len(names))
	copy(out, names)
	return out
}
