package record

// MonthLabels names the histogram buckets of Stats.ByMonth.
var MonthLabels = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Stats is an aggregate over a full record set.
type Stats[S Status] struct {
	Total    int       `json:"total"`
	ByStatus map[S]int `json:"by_status"`
	// ByMonth counts records by calendar month of creation (UTC), January
	// first. Years are not distinguished.
	ByMonth [12]int `json:"by_month"`
}

// Aggregate counts records per status and per creation month. Every value
// in statuses gets a bucket, zero included, so the counts always sum to
// Total.
func Aggregate[S Status, R Record[S, R]](records []R, statuses []S) Stats[S] {
	st := Stats[S]{ByStatus: make(map[S]int, len(statuses))}
	for _, s := range statuses {
		st.ByStatus[s] = 0
	}
	for _, r := range records {
		st.Total++
		st.ByStatus[r.RecordStatus()]++
		st.ByMonth[r.Created().UTC().Month()-1]++
	}
	return st
}
