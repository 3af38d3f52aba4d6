package domain

// Built-in rule identifiers. The rule repository may serve any subset of
// these (plus unknown IDs, which the engine ignores).
const (
	RuleDirectorCount         = "DIRECTOR_COUNT"
	RulePassportPhoto         = "PASSPORT_PHOTO"
	RuleSignature             = "SIGNATURE"
	RuleAddressProof          = "ADDRESS_PROOF"
	RuleIndianDirectorPAN     = "INDIAN_DIRECTOR_PAN"
	RuleIndianDirectorAadhaar = "INDIAN_DIRECTOR_AADHAR"
	RuleForeignDirectorDocs   = "FOREIGN_DIRECTOR_DOCS"
	RuleCompanyAddressProof   = "COMPANY_ADDRESS_PROOF"
	RuleNOCValidation         = "NOC_VALIDATION"
	RuleAadhaarPANLinkage     = "AADHAR_PAN_LINKAGE"
	RuleAadhaarPANNameMatch   = "AADHAR_PAN_NAME_MATCH"
	RuleTenantEBNameMatch     = "TENANT_EB_NAME_MATCH"
	RuleNOCOwnerValidation    = "NOC_OWNER_VALIDATION"
	RuleNOCMultipleSignatures = "NOC_MULTIPLE_SIGNATURES"
	RuleConsentLetter         = "CONSENT_LETTER_VALIDATION"
	RuleBoardResolution       = "BOARD_RESOLUTION_VALIDATION"
	RuleTrademarkApplicant    = "TRADEMARK_APPLICANT_DOCS"
	RuleTrademarkVerification = "TRADEMARK_VERIFICATION_DOCS"
)

// Document slot names used by the built-in rules.
const (
	SlotPassportPhoto       = "passportPhoto"
	SlotSignature           = "signature"
	SlotAddressProof        = "addressProof"
	SlotPAN                 = "pan"
	SlotAadhaarFront        = "aadharFront"
	SlotAadhaarBack         = "aadharBack"
	SlotPassport            = "passport"
	SlotCompanyAddressProof = "companyAddressProof"
	SlotNOC                 = "noc"
	SlotElectricityBill     = "electricityBill"
	SlotConsentLetter       = "consentLetter"
	SlotBoardResolution     = "boardResolution"
	SlotMSMECertificate     = "msmeCertificate"
	SlotDIPPCertificate     = "dippCertificate"
	SlotVerificationDoc     = "verificationDocument"
)

// Precondition keys recognized by the built-in rules.
const (
	PreconditionCompanyAddress = "company_address"
	PreconditionOwnerName      = "owner_name"
	PreconditionCompanyName    = "company_name"
)
