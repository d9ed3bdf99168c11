package domain

import (
	"errors"
	"fmt"
)

// Link is a CMS cross-reference: the host CMS resolves it by exact uuid and href match.
type Link struct {
	UUID string `mapstructure:"uuid" json:"uuid" yaml:"uuid"`
	Href string `mapstructure:"href" json:"href" yaml:"href"`
}

// LinkSet holds the three fixed cross-references used by the notice templates.
// Contact links appear in both full notices; the alert link is the target of both alert boxes.
type LinkSet struct {
	ClientServiceCentre      Link `mapstructure:"client_service_centre" json:"client_service_centre" yaml:"client_service_centre"`
	CorrespondenceProcedures Link `mapstructure:"correspondence_procedures" json:"correspondence_procedures" yaml:"correspondence_procedures"`
	AlertTarget              Link `mapstructure:"alert_link" json:"alert_link" yaml:"alert_link"`
}

// Default CMS identifiers / Identifiants CMS par défaut
//
// The alert target pair is a deployment placeholder: set cms.alert_link in config.
const (
	DefaultClientServiceCentreUUID      = "78a10a22-8b11-4c4e-bef2-5c37808ebaba"
	DefaultClientServiceCentreHref      = "/site/canadian-intellectual-property-office/node/13"
	DefaultCorrespondenceProceduresUUID = "d0a59429-cdb8-4122-b2b0-6167cf90e56b"
	DefaultCorrespondenceProceduresHref = "/site/canadian-intellectual-property-office/node/133"
	DefaultAlertTargetUUID              = "5c1f3e2a-7b4d-4e8f-9a61-2d0c8b7e4f13"
	DefaultAlertTargetHref              = "/site/canadian-intellectual-property-office/node/1301"
)

// DefaultLinks returns the link set shipped with the tool.
func DefaultLinks() LinkSet {
	return LinkSet{
		ClientServiceCentre: Link{
			UUID: DefaultClientServiceCentreUUID,
			Href: DefaultClientServiceCentreHref,
		},
		CorrespondenceProcedures: Link{
			UUID: DefaultCorrespondenceProceduresUUID,
			Href: DefaultCorrespondenceProceduresHref,
		},
		AlertTarget: Link{
			UUID: DefaultAlertTargetUUID,
			Href: DefaultAlertTargetHref,
		},
	}
}

// Validate checks that every link is set and that the three pairs are pairwise distinct.
func (ls LinkSet) Validate() error {
	named := []struct {
		name string
		link Link
	}{
		{"client_service_centre", ls.ClientServiceCentre},
		{"correspondence_procedures", ls.CorrespondenceProcedures},
		{"alert_link", ls.AlertTarget},
	}

	for _, n := range named {
		if n.link.UUID == "" || n.link.Href == "" {
			return fmt.Errorf("cms.%s: uuid and href are required", n.name)
		}
	}

	if ls.ClientServiceCentre.overlaps(ls.CorrespondenceProcedures) {
		return errors.New("cms: contact links must reference distinct pages")
	}
	if ls.AlertTarget.overlaps(ls.ClientServiceCentre) || ls.AlertTarget.overlaps(ls.CorrespondenceProcedures) {
		return errors.New("cms: alert_link must differ from the contact links")
	}
	return nil
}

func (l Link) overlaps(other Link) bool {
	return l.UUID == other.UUID || l.Href == other.Href
}
