package flow

import (
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github/safehost/go-provider/internal/chains"
)

const createCallABIJSON = `[{"inputs":[{"internalType":"uint256","name":"value","type":"uint256"},{"internalType":"bytes","name":"deploymentData","type":"bytes"}],"name":"performCreate","outputs":[{"internalType":"address","name":"newContract","type":"address"}],"stateMutability":"nonpayable","type":"function"}]`

var (
	createCallABI     abi.ABI
	createCallABIOnce sync.Once
	createCallABIErr  error
)

func loadCreateCallABI() (abi.ABI, error) {
	createCallABIOnce.Do(func() {
		createCallABI, createCallABIErr = abi.JSON(strings.NewReader(createCallABIJSON))
	})

	return createCallABI, createCallABIErr
}

// GetCreateCallTransaction wraps contract deployment data into a performCreate
// call against the chain's CreateCall helper contract, so embedded apps can
// deploy contracts through the multisig account.
func (s *service) GetCreateCallTransaction(data string) (*TransactionParams, error) {
	deploymentData, err := hexutil.Decode(data)
	if err != nil {
		return nil, errors.Wrap(err, "invalid deployment data")
	}

	address, err := chains.GetCreateCallDeployment(s.chainID, s.safeVersion)
	if err != nil {
		return nil, err
	}

	parsed, err := loadCreateCallABI()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse CreateCall ABI")
	}

	callData, err := parsed.Pack("performCreate", big.NewInt(0), deploymentData)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode performCreate call")
	}

	return &TransactionParams{
		To:    address,
		Data:  hexutil.Encode(callData),
		Value: "0",
	}, nil
}
