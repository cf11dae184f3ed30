package chains

import (
	"github.com/pkg/errors"
)

// Canonical CreateCall helper contract deployments. The same address is used
// across chains for a given Safe version.
const (
	createCallAddress130 = "0x7cbB62EaA69F79e6873cD1ecB2392971036cFAa4"
	createCallAddress141 = "0x9b35Af71d77eaf8d7e40252370304687390A1A52"
)

// createCallDeployments maps chain id to Safe version to CreateCall address.
var createCallDeployments = map[uint64]map[string]string{
	1:        {"1.3.0": createCallAddress130, "1.4.1": createCallAddress141},
	5:        {"1.3.0": createCallAddress130},
	10:       {"1.3.0": createCallAddress130, "1.4.1": createCallAddress141},
	56:       {"1.3.0": createCallAddress130, "1.4.1": createCallAddress141},
	100:      {"1.3.0": createCallAddress130, "1.4.1": createCallAddress141},
	137:      {"1.3.0": createCallAddress130, "1.4.1": createCallAddress141},
	8453:     {"1.3.0": createCallAddress130, "1.4.1": createCallAddress141},
	42161:    {"1.3.0": createCallAddress130, "1.4.1": createCallAddress141},
	11155111: {"1.3.0": createCallAddress130, "1.4.1": createCallAddress141},
}

// GetCreateCallDeployment resolves the CreateCall helper contract address for
// the given chain and Safe version.
func GetCreateCallDeployment(chainID uint64, safeVersion string) (string, error) {
	byVersion, ok := createCallDeployments[chainID]
	if !ok {
		return "", errors.Errorf("no CreateCall deployment on chain %d", chainID)
	}

	address, ok := byVersion[safeVersion]
	if !ok {
		return "", errors.Errorf("no CreateCall deployment for Safe version %s on chain %d", safeVersion, chainID)
	}

	return address, nil
}
