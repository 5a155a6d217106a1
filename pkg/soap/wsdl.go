package soap

import (
	"encoding/xml"
	"strings"
)

const nsWSDLSOAP12 = "http://schemas.xmlsoap.org/wsdl/soap12/"

type wsdlDefinitions struct {
	TargetNamespace string        `xml:"targetNamespace,attr"`
	Bindings        []wsdlBinding `xml:"binding"`
	Services        []wsdlService `xml:"service"`
}

type wsdlBinding struct {
	Operations []wsdlOperation `xml:"operation"`
}

type wsdlOperation struct {
	Name string `xml:"name,attr"`
	SOAP []struct {
		Action string `xml:"soapAction,attr"`
	} `xml:"operation"`
}

type wsdlService struct {
	Ports []struct {
		Addresses []struct {
			XMLName  xml.Name
			Location string `xml:"location,attr"`
		} `xml:"address"`
	} `xml:"port"`
}

// serviceDescription is what the client needs from a WSDL document.
type serviceDescription struct {
	namespace string
	location  string
	version   string
	actions   map[string]string
}

func parseWSDL(raw []byte) (*serviceDescription, error) {
	var defs wsdlDefinitions
	if err := xml.Unmarshal(raw, &defs); err != nil {
		return nil, err
	}
	desc := &serviceDescription{
		namespace: strings.TrimSpace(defs.TargetNamespace),
		actions:   map[string]string{},
	}
	for _, b := range defs.Bindings {
		for _, op := range b.Operations {
			for _, s := range op.SOAP {
				if s.Action != "" {
					if _, seen := desc.actions[op.Name]; !seen {
						desc.actions[op.Name] = s.Action
					}
				}
			}
		}
	}
	for _, svc := range defs.Services {
		for _, port := range svc.Ports {
			for _, addr := range port.Addresses {
				if desc.location != "" || strings.TrimSpace(addr.Location) == "" {
					continue
				}
				desc.location = strings.TrimSpace(addr.Location)
				if addr.XMLName.Space == nsWSDLSOAP12 {
					desc.version = Version12
				} else {
					desc.version = Version11
				}
			}
		}
	}
	return desc, nil
}
