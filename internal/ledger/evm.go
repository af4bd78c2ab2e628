package ledger

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"betledger/internal/config"
	"betledger/internal/models"
)

// Minimal ABI for the betting contract. Only the entry points this service
// uses are declared; the contract carries more.
const bettingABI = `[
	{"name":"createMatch","type":"function","inputs":[
		{"name":"homeTeam","type":"string"},
		{"name":"awayTeam","type":"string"},
		{"name":"startTime","type":"uint64"},
		{"name":"oddsHome","type":"uint32"},
		{"name":"oddsDraw","type":"uint32"},
		{"name":"oddsAway","type":"uint32"}
	],"outputs":[]},
	{"name":"placeBet","type":"function","inputs":[
		{"name":"owner","type":"address"},
		{"name":"matchId","type":"uint256"},
		{"name":"outcome","type":"uint8"},
		{"name":"amount","type":"uint256"}
	],"outputs":[]},
	{"name":"confirmResult","type":"function","inputs":[
		{"name":"matchId","type":"uint256"},
		{"name":"outcome","type":"uint8"}
	],"outputs":[]},
	{"name":"payout","type":"function","inputs":[
		{"name":"betId","type":"uint256"}
	],"outputs":[]},
	{"name":"getMatch","type":"function","stateMutability":"view","inputs":[
		{"name":"matchId","type":"uint256"}
	],"outputs":[
		{"name":"homeTeam","type":"string"},
		{"name":"awayTeam","type":"string"},
		{"name":"startTime","type":"uint64"},
		{"name":"oddsHome","type":"uint32"},
		{"name":"oddsDraw","type":"uint32"},
		{"name":"oddsAway","type":"uint32"},
		{"name":"status","type":"uint8"},
		{"name":"result","type":"uint8"},
		{"name":"hasResult","type":"bool"},
		{"name":"totalStaked","type":"uint256"}
	]},
	{"name":"getBet","type":"function","stateMutability":"view","inputs":[
		{"name":"betId","type":"uint256"}
	],"outputs":[
		{"name":"owner","type":"address"},
		{"name":"matchId","type":"uint256"},
		{"name":"outcome","type":"uint8"},
		{"name":"amount","type":"uint256"},
		{"name":"odds","type":"uint32"},
		{"name":"status","type":"uint8"},
		{"name":"claimed","type":"bool"},
		{"name":"placedAt","type":"uint64"}
	]},
	{"name":"matchCount","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"betCount","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	// MatchCreated(uint256 indexed matchId)
	sigMatchCreated = crypto.Keccak256Hash([]byte("MatchCreated(uint256)"))
	// BetPlaced(uint256 indexed betId, uint256 indexed matchId)
	sigBetPlaced = crypto.Keccak256Hash([]byte("BetPlaced(uint256,uint256)"))
)

// EVM talks to the betting contract over JSON-RPC. Writes are signed with the
// operator key; ids are recovered from the emitted events.
type EVM struct {
	cfg      config.LedgerConfig
	client   *ethclient.Client
	abi      abi.ABI
	contract common.Address
	key      *ecdsa.PrivateKey
	from     common.Address
	chainID  *big.Int
}

func NewEVM(ctx context.Context, cfg config.LedgerConfig) (*EVM, error) {
	if cfg.RPCURL == "" || cfg.ContractAddress == "" || cfg.PrivateKey == "" {
		return nil, fmt.Errorf("ledger rpc_url, contract_address and private_key are required")
	}

	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial rpc: %v", ErrUnavailable, err)
	}

	parsed, err := abi.JSON(strings.NewReader(bettingABI))
	if err != nil {
		return nil, err
	}

	keyHex := strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKey), "0x")
	keyBuf, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("decode operator key: %w", err)
	}
	key, err := crypto.ToECDSA(keyBuf)
	if err != nil {
		return nil, fmt.Errorf("operator key to ecdsa: %w", err)
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: chain id: %v", ErrUnavailable, err)
	}

	return &EVM{
		cfg:      cfg,
		client:   client,
		abi:      parsed,
		contract: common.HexToAddress(cfg.ContractAddress),
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:  chainID,
	}, nil
}

func (e *EVM) Close() {
	e.client.Close()
}

func (e *EVM) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, e.cfg.Timeout)
}

func (e *EVM) CreateMatch(ctx context.Context, params CreateMatchParams) (uint64, string, error) {
	receipt, proof, err := e.transact(ctx, "createMatch",
		params.HomeTeam,
		params.AwayTeam,
		uint64(params.StartTime.Unix()),
		unitsU32(oddsToUnits(params.OddsHome)),
		unitsU32(oddsToUnits(params.OddsDraw)),
		unitsU32(oddsToUnits(params.OddsAway)),
	)
	if err != nil {
		return 0, "", err
	}
	id, err := e.idFromLogs(receipt, sigMatchCreated)
	if err != nil {
		return 0, "", err
	}
	return id, proof, nil
}

func (e *EVM) SubmitWager(ctx context.Context, matchID uint64, outcome models.Outcome, owner string, amount decimal.Decimal) (uint64, string, error) {
	receipt, proof, err := e.transact(ctx, "placeBet",
		common.HexToAddress(owner),
		new(big.Int).SetUint64(matchID),
		uint8(outcome),
		stakeToUnits(amount),
	)
	if err != nil {
		return 0, "", err
	}
	id, err := e.idFromLogs(receipt, sigBetPlaced)
	if err != nil {
		return 0, "", err
	}
	return id, proof, nil
}

func (e *EVM) ConfirmResult(ctx context.Context, matchID uint64, outcome models.Outcome) (string, error) {
	_, proof, err := e.transact(ctx, "confirmResult", new(big.Int).SetUint64(matchID), uint8(outcome))
	return proof, err
}

func (e *EVM) Payout(ctx context.Context, betID uint64) (string, error) {
	_, proof, err := e.transact(ctx, "payout", new(big.Int).SetUint64(betID))
	return proof, err
}

func (e *EVM) MatchRecord(ctx context.Context, id uint64) (*MatchRecord, error) {
	out, err := e.call(ctx, "getMatch", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	if len(out) != 10 {
		return nil, fmt.Errorf("getMatch: unexpected output arity %d", len(out))
	}
	rec := &MatchRecord{
		ID:          id,
		HomeTeam:    out[0].(string),
		AwayTeam:    out[1].(string),
		StartTime:   time.Unix(int64(out[2].(uint64)), 0).UTC(),
		OddsHome:    unitsToOdds(new(big.Int).SetUint64(uint64(out[3].(uint32)))),
		OddsDraw:    unitsToOdds(new(big.Int).SetUint64(uint64(out[4].(uint32)))),
		OddsAway:    unitsToOdds(new(big.Int).SetUint64(uint64(out[5].(uint32)))),
		Status:      matchStatusFromCode(out[6].(uint8)),
		TotalStaked: unitsToStake(out[9].(*big.Int)),
	}
	if rec.HomeTeam == "" && rec.AwayTeam == "" {
		return nil, fmt.Errorf("%w: match %d", ErrRecordNotFound, id)
	}
	if out[8].(bool) {
		result := models.Outcome(out[7].(uint8))
		rec.Result = &result
	}
	return rec, nil
}

func (e *EVM) BetRecord(ctx context.Context, id uint64) (*BetRecord, error) {
	out, err := e.call(ctx, "getBet", new(big.Int).SetUint64(id))
	if err != nil {
		return nil, err
	}
	if len(out) != 8 {
		return nil, fmt.Errorf("getBet: unexpected output arity %d", len(out))
	}
	owner := out[0].(common.Address)
	if owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: bet %d", ErrRecordNotFound, id)
	}
	return &BetRecord{
		ID:       id,
		Owner:    owner.Hex(),
		MatchID:  out[1].(*big.Int).Uint64(),
		Outcome:  models.Outcome(out[2].(uint8)),
		Amount:   unitsToStake(out[3].(*big.Int)),
		Odds:     unitsToOdds(new(big.Int).SetUint64(uint64(out[4].(uint32)))),
		Status:   betStatusFromCode(out[5].(uint8)),
		Claimed:  out[6].(bool),
		PlacedAt: time.Unix(int64(out[7].(uint64)), 0).UTC(),
	}, nil
}

func (e *EVM) MatchCount(ctx context.Context) (uint64, error) {
	return e.count(ctx, "matchCount")
}

func (e *EVM) BetCount(ctx context.Context) (uint64, error) {
	return e.count(ctx, "betCount")
}

func (e *EVM) count(ctx context.Context, method string) (uint64, error) {
	out, err := e.call(ctx, method)
	if err != nil {
		return 0, err
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("%s: unexpected output arity %d", method, len(out))
	}
	return out[0].(*big.Int).Uint64(), nil
}

func (e *EVM) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	ctx, cancel := e.callCtx(ctx)
	defer cancel()

	data, err := e.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &e.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: call %s: %v", ErrUnavailable, method, err)
	}
	out, err := e.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return out, nil
}

// transact signs, sends and waits for a receipt. A mined-but-reverted tx is a
// hard failure, not a retry candidate.
func (e *EVM) transact(ctx context.Context, method string, args ...interface{}) (*types.Receipt, string, error) {
	ctx, cancel := e.callCtx(ctx)
	defer cancel()

	data, err := e.abi.Pack(method, args...)
	if err != nil {
		return nil, "", fmt.Errorf("pack %s: %w", method, err)
	}

	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("%w: gas price: %v", ErrUnavailable, err)
	}
	nonce, err := e.client.PendingNonceAt(ctx, e.from)
	if err != nil {
		return nil, "", fmt.Errorf("%w: pending nonce: %v", ErrUnavailable, err)
	}

	gasLimit := e.cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = 300000
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &e.contract,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(e.chainID), e.key)
	if err != nil {
		return nil, "", fmt.Errorf("sign %s: %w", method, err)
	}
	if err := e.client.SendTransaction(ctx, signed); err != nil {
		return nil, "", fmt.Errorf("%w: send %s: %v", ErrUnavailable, method, err)
	}

	txHash := signed.Hash()
	receipt, err := e.waitMined(ctx, txHash)
	if err != nil {
		return nil, "", err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, "", fmt.Errorf("%w: %s tx %s", ErrReverted, method, txHash.Hex())
	}
	return receipt, txHash.Hex(), nil
}

func (e *EVM) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	attempts := e.cfg.ConfirmAttempts
	if attempts <= 0 {
		attempts = 30
	}
	interval := e.cfg.ConfirmInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	for i := 0; i < attempts; i++ {
		receipt, err := e.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: waiting for tx %s: %v", ErrUnavailable, txHash.Hex(), ctx.Err())
		case <-time.After(interval):
		}
	}
	return nil, fmt.Errorf("%w: tx %s not mined after %d attempts", ErrUnavailable, txHash.Hex(), attempts)
}

func (e *EVM) idFromLogs(receipt *types.Receipt, sig common.Hash) (uint64, error) {
	for _, vLog := range receipt.Logs {
		if vLog.Address != e.contract || len(vLog.Topics) < 2 || vLog.Topics[0] != sig {
			continue
		}
		return new(big.Int).SetBytes(vLog.Topics[1].Bytes()).Uint64(), nil
	}
	return 0, fmt.Errorf("tx %s: expected event %s not emitted", receipt.TxHash.Hex(), sig.Hex())
}

func unitsU32(b *big.Int) uint32 {
	return uint32(b.Uint64())
}
