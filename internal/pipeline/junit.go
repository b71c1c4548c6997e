package pipeline

import (
	"encoding/xml"
	"fmt"

	"github.com/nebulascloud/jaci/internal/models"
)

type junitFailure struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

type junitTestCase struct {
	ClassName string        `xml:"classname,attr"`
	Name      string        `xml:"name,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitTestSuite struct {
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

// RenderJUnit renders suite results as a JUnit XML report for CI
// consumption.
func RenderJUnit(suites []models.SuiteResult) ([]byte, error) {
	doc := junitTestSuites{}
	for _, s := range suites {
		ts := junitTestSuite{
			Name:  s.Suite,
			Tests: 1,
			Time:  fmt.Sprintf("%.3f", s.Duration.Seconds()),
		}
		tc := junitTestCase{
			ClassName: "jaci.suites",
			Name:      s.Suite + "_suite",
			Time:      fmt.Sprintf("%.3f", s.Duration.Seconds()),
		}
		if !s.Passed {
			ts.Failures = 1
			tc.Failure = &junitFailure{
				Message: s.Suite + " suite failed",
				Body:    s.Output,
			}
		}
		ts.Cases = append(ts.Cases, tc)
		doc.Suites = append(doc.Suites, ts)
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal junit xml: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
