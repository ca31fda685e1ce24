// Package workitem defines the generation pipeline's input unit and the
// intake boundary with the ingestion collaborator.
package workitem
