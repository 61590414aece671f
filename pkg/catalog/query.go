package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/collegematch/collegematch-engine/pkg/config"
)

// Scorecard field names requested for every school.
const (
	fieldID                = "id"
	fieldName              = "school.name"
	fieldCity              = "school.city"
	fieldState             = "school.state"
	fieldURL               = "school.school_url"
	fieldTuitionInState    = "latest.cost.tuition.in_state"
	fieldTuitionOutOfState = "latest.cost.tuition.out_of_state"
	fieldAdmissionRate     = "latest.admissions.admission_rate.overall"
	fieldAvgSAT            = "latest.admissions.sat_scores.average.overall"
	fieldAvgACT            = "latest.admissions.act_scores.midpoint.cumulative"
	fieldStudentSize       = "latest.student.size"
)

var requestedFields = strings.Join([]string{
	fieldID,
	fieldName,
	fieldCity,
	fieldState,
	fieldURL,
	fieldTuitionInState,
	fieldTuitionOutOfState,
	fieldAdmissionRate,
	fieldAvgSAT,
	fieldAvgACT,
	fieldStudentSize,
}, ",")

var sortExpressions = map[string]string{
	config.SortAdmissionRate: fieldAdmissionRate + ":asc",
	config.SortTuition:       fieldTuitionInState + ":asc",
}

// buildQuery assembles the Scorecard query for the given filters, without the api key.
// Major is not a Scorecard filter; it only travels to the ranker.
func buildQuery(effectiveBudget int, states []string, perPage int, sortKey string) url.Values {
	q := url.Values{}
	q.Set("fields", requestedFields)
	q.Set("school.operating", "1")
	q.Set("school.degrees_awarded.predominant__range", "2..3") // associate's and bachelor's
	q.Set("latest.student.size__range", "1..")
	q.Set(fieldTuitionInState+"__range", "0.."+strconv.Itoa(effectiveBudget))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("page", "0")

	sortExpr, ok := sortExpressions[sortKey]
	if !ok {
		sortExpr = sortExpressions[config.SortAdmissionRate]
	}
	q.Set("_sort", sortExpr)

	if len(states) > 0 {
		q.Set("school.state", strings.Join(states, ","))
	}
	return q
}

// cacheKey derives a stable key from the query. url.Values.Encode sorts keys,
// so equal filters always hash the same.
func cacheKey(q url.Values) string {
	sum := sha256.Sum256([]byte(q.Encode()))
	return "catalog:v1:" + hex.EncodeToString(sum[:])
}
