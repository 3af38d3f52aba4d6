package domain

// LinkageFact is the pre-fetched Aadhaar-PAN linkage status for one
// entity. Linkage lookups run between document resolution and rule
// dispatch so rule evaluation itself stays free of I/O.
type LinkageFact struct {
	Checked     bool
	IsLinked    bool
	RateLimited bool
	Message     string
}
