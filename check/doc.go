// Package check contains the stages of the verification pipeline:
// syntax and heuristic classification, DNS resolution, the SMTP RCPT probe,
// catch-all detection and scoring.
// Each stage returns a plain outcome value; none of them return Go errors for
// network failures. The recommended entry point is the Verifier in
// github.com/optimode/mailprobe, which runs these stages in order.
package check
