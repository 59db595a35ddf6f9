package db

// Paper modes
const (
	PaperModeGenerated = "generated"
	PaperModeCurated   = "curated"
)

// Paper represents a database record of one built paper
type Paper struct {
	ID             string `ssql_header:"id" ssql_type:"uuid"`
	CreatedAt      string `ssql_header:"created_at" ssql_type:"datetime"`
	Mode           string `ssql_header:"mode" ssql_type:"text"`
	Seed           int64  `ssql_header:"seed" ssql_type:"int"`
	TargetWeight   int    `ssql_header:"target_weight" ssql_type:"int"`
	AchievedWeight int    `ssql_header:"achieved_weight" ssql_type:"int"`
	Complete       bool   `ssql_header:"complete" ssql_type:"bool"`
}

// PaperItem represents one question placed in a paper
type PaperItem struct {
	ID       string `ssql_header:"id" ssql_type:"uuid"`
	PaperID  string `ssql_header:"paper_id" ssql_type:"uuid"`
	BucketID string `ssql_header:"bucket_id" ssql_type:"text"`
	Position int    `ssql_header:"position" ssql_type:"int"`
	ItemID   string `ssql_header:"item_id" ssql_type:"text"`
	Category string `ssql_header:"category" ssql_type:"text"`
	Tier     string `ssql_header:"tier" ssql_type:"text"`
	Weight   int    `ssql_header:"weight" ssql_type:"int"`
}
