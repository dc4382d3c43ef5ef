package report

// Datasets lists the externally linked data sources covered by the report.
// Each query pre-aggregates to one row per event day so only (date, count)
// pairs cross the wire; the axis alignment and zero-fill happen in the
// counting engine.
var Datasets = []DatasetDefinition{
	{
		ID:          "test-any",
		Name:        "Any SARS-CoV-2 test",
		Description: "All positive or negative tests reported by the national testing service",
		SQL: `SELECT specimen_date AS event_date, COUNT(*) AS n
FROM sgss_all_tests
WHERE specimen_date BETWEEN $1 AND $2
GROUP BY specimen_date
ORDER BY specimen_date`,
	},
	{
		ID:          "test-positive",
		Name:        "Positive SARS-CoV-2 test",
		Description: "All positive tests reported by the national testing service",
		SQL: `SELECT specimen_date AS event_date, COUNT(*) AS n
FROM sgss_all_tests
WHERE result = 'positive' AND specimen_date BETWEEN $1 AND $2
GROUP BY specimen_date
ORDER BY specimen_date`,
	},
	{
		ID:             "first-test",
		Name:           "First-only SARS-CoV-2 test",
		Description:    "Each patient's earliest test; one row per patient upstream",
		FirstEventOnly: true,
		SQL: `SELECT earliest_specimen_date AS event_date, COUNT(*) AS n
FROM sgss_first_tests
WHERE earliest_specimen_date BETWEEN $1 AND $2
GROUP BY earliest_specimen_date
ORDER BY earliest_specimen_date`,
	},
	{
		ID:             "first-positive-test",
		Name:           "First-only positive SARS-CoV-2 test",
		Description:    "Each patient's earliest positive test; one row per patient upstream",
		FirstEventOnly: true,
		SQL: `SELECT earliest_specimen_date AS event_date, COUNT(*) AS n
FROM sgss_first_tests
WHERE result = 'positive' AND earliest_specimen_date BETWEEN $1 AND $2
GROUP BY earliest_specimen_date
ORDER BY earliest_specimen_date`,
	},
	{
		ID:          "emergency-attendance",
		Name:        "A&E attendance",
		Description: "Emergency care attendances from the emergency care dataset",
		SQL: `SELECT arrival_date AS event_date, COUNT(*) AS n
FROM emergency_care
WHERE arrival_date BETWEEN $1 AND $2
GROUP BY arrival_date
ORDER BY arrival_date`,
	},
	{
		ID:          "hospital-admission",
		Name:        "In-patient hospital admission",
		Description: "Admitted patient care spells",
		SQL: `SELECT admission_date AS event_date, COUNT(*) AS n
FROM hospital_admissions
WHERE admission_date BETWEEN $1 AND $2
GROUP BY admission_date
ORDER BY admission_date`,
	},
	{
		ID:          "icu-admission",
		Name:        "Covid-related ICU admission",
		Description: "Intensive care admissions from the critical care audit",
		SQL: `SELECT admitted_at::date AS event_date, COUNT(*) AS n
FROM icu_admissions
WHERE admitted_at::date BETWEEN $1 AND $2
GROUP BY admitted_at::date
ORDER BY event_date`,
	},
	{
		ID:          "covid-hospital-death",
		Name:        "Covid-related in-hospital death",
		Description: "In-hospital covid deaths from the notification service",
		SQL: `SELECT date_of_death AS event_date, COUNT(*) AS n
FROM covid_hospital_deaths
WHERE date_of_death BETWEEN $1 AND $2
GROUP BY date_of_death
ORDER BY date_of_death`,
	},
	{
		ID:          "registered-death",
		Name:        "Registered death (all causes)",
		Description: "All-cause registered deaths from the national register",
		SQL: `SELECT date_of_death AS event_date, COUNT(*) AS n
FROM registered_deaths
WHERE date_of_death BETWEEN $1 AND $2
GROUP BY date_of_death
ORDER BY date_of_death`,
	},
}

// StageColumns is the advancement ordering for net attribution, least to
// most advanced. It is passed explicitly so attribution semantics never
// depend on incidental column order in a query result.
var StageColumns = []string{
	"positive_test",
	"emergency_attendance",
	"hospital_admission",
	"icu_admission",
	"covid_hospital_death",
}

// stageDatesSQL returns one row per patient with the first date each stage
// was reached, columns in StageColumns order.
const stageDatesSQL = `WITH tests AS (
	SELECT patient_id, MIN(specimen_date) AS d
	FROM sgss_all_tests WHERE result = 'positive' GROUP BY patient_id
), attendances AS (
	SELECT patient_id, MIN(arrival_date) AS d
	FROM emergency_care GROUP BY patient_id
), admissions AS (
	SELECT patient_id, MIN(admission_date) AS d
	FROM hospital_admissions GROUP BY patient_id
), icu AS (
	SELECT patient_id, MIN(admitted_at::date) AS d
	FROM icu_admissions GROUP BY patient_id
), deaths AS (
	SELECT patient_id, MIN(date_of_death) AS d
	FROM covid_hospital_deaths GROUP BY patient_id
)
SELECT tests.d      AS positive_test,
       attendances.d AS emergency_attendance,
       admissions.d  AS hospital_admission,
       icu.d         AS icu_admission,
       deaths.d      AS covid_hospital_death
FROM tests
FULL OUTER JOIN attendances USING (patient_id)
FULL OUTER JOIN admissions USING (patient_id)
FULL OUTER JOIN icu USING (patient_id)
FULL OUTER JOIN deaths USING (patient_id)`

// latestImportsSQL reads the build metadata maintained by the ingest
// pipeline: one row per dataset with its most recent import time.
const latestImportsSQL = `SELECT dataset, MAX(imported_at) AS latest_import
FROM dataset_builds
GROUP BY dataset
ORDER BY dataset`

// FindDataset looks up a dataset definition by ID.
func FindDataset(id string) *DatasetDefinition {
	for i := range Datasets {
		if Datasets[i].ID == id {
			return &Datasets[i]
		}
	}
	return nil
}
