package contracts

// ABIs of the deployed contracts the keeper talks to. They are fixed external
// interfaces; keep them in sync with the deployed bytecode.

const PayrollABI = `[
 {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
 {"type":"function","name":"companyOwner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"addEmployee","stateMutability":"nonpayable","inputs":[{"name":"wallet","type":"address"},{"name":"tokenAddress","type":"address"},{"name":"salaryPerPeriod","type":"uint256"},{"name":"frequency","type":"uint8"},{"name":"customFrequency","type":"uint64"},{"name":"taxBps","type":"uint16"}],"outputs":[]},
 {"type":"function","name":"processPayment","stateMutability":"nonpayable","inputs":[{"name":"employee","type":"address"}],"outputs":[]},
 {"type":"function","name":"forceProcessPayment","stateMutability":"nonpayable","inputs":[{"name":"employee","type":"address"}],"outputs":[]},
 {"type":"function","name":"processPaymentWithHedge","stateMutability":"nonpayable","inputs":[{"name":"employee","type":"address"}],"outputs":[]},
 {"type":"function","name":"removeEmployee","stateMutability":"nonpayable","inputs":[{"name":"employee","type":"address"}],"outputs":[]},
 {"type":"function","name":"deleteEmployeePermanently","stateMutability":"nonpayable","inputs":[{"name":"employee","type":"address"}],"outputs":[]},
 {"type":"function","name":"reactivateEmployee","stateMutability":"nonpayable","inputs":[{"name":"employee","type":"address"}],"outputs":[]},
 {"type":"function","name":"getEmployee","stateMutability":"view","inputs":[{"name":"_employee","type":"address"}],"outputs":[{"name":"wallet","type":"address"},{"name":"tokenType","type":"uint8"},{"name":"tokenAddress","type":"address"},{"name":"salaryPerPeriod","type":"uint256"},{"name":"frequency","type":"uint8"},{"name":"customFrequency","type":"uint64"},{"name":"nextPayTimestamp","type":"uint64"},{"name":"taxBps","type":"uint16"},{"name":"active","type":"bool"},{"name":"owed","type":"uint256"}]},
 {"type":"function","name":"getEmployeeList","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
 {"type":"function","name":"addAdmin","stateMutability":"nonpayable","inputs":[{"name":"who","type":"address"}],"outputs":[]},
 {"type":"function","name":"removeAdmin","stateMutability":"nonpayable","inputs":[{"name":"who","type":"address"}],"outputs":[]},
 {"type":"function","name":"toggleTax","stateMutability":"nonpayable","inputs":[{"name":"enabled","type":"bool"}],"outputs":[]},
 {"type":"function","name":"setTaxRecipient","stateMutability":"nonpayable","inputs":[{"name":"recipient","type":"address"}],"outputs":[]},
 {"type":"function","name":"configureHedgeVault","stateMutability":"nonpayable","inputs":[{"name":"employee","type":"address"},{"name":"riskLevel","type":"uint8"},{"name":"volatilityThreshold","type":"uint256"},{"name":"volatileToken","type":"address"},{"name":"stableToken","type":"address"}],"outputs":[]},
 {"type":"function","name":"toggleHedgeVault","stateMutability":"nonpayable","inputs":[{"name":"employee","type":"address"},{"name":"enabled","type":"bool"}],"outputs":[]},
 {"type":"function","name":"updateHedgeVaultConfig","stateMutability":"nonpayable","inputs":[{"name":"riskLevel","type":"uint8"},{"name":"volatilityThreshold","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"USDC_ADDRESS","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"METH_ADDRESS","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"emergencyWithdraw","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"fundWithERC20","stateMutability":"nonpayable","inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[]},
 {"type":"function","name":"fundWithETH","stateMutability":"payable","inputs":[],"outputs":[]},
 {"type":"function","name":"claim","stateMutability":"nonpayable","inputs":[],"outputs":[]},
 {"type":"function","name":"releaseVested","stateMutability":"nonpayable","inputs":[],"outputs":[]},
 {"type":"function","name":"releasableVested","stateMutability":"view","inputs":[{"name":"employee","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"updateMyWallet","stateMutability":"nonpayable","inputs":[{"name":"newWallet","type":"address"}],"outputs":[]},
 {"type":"function","name":"getPaymentHistory","stateMutability":"view","inputs":[{"name":"employee","type":"address"}],"outputs":[{"name":"","type":"tuple[]","components":[{"name":"amount","type":"uint256"},{"name":"timestamp","type":"uint64"},{"name":"isBonus","type":"bool"},{"name":"memo","type":"string"}]}]}
]`

const FactoryABI = `[
 {"type":"function","name":"deployCompanyPayroll","stateMutability":"nonpayable","inputs":[{"name":"companyOwner","type":"address"},{"name":"taxRecipient","type":"address"}],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
 {"type":"function","name":"getCompanyPayrolls","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"address[]"}]}
]`

const HedgeVaultManagerABI = `[
 {"type":"function","name":"initializeHedgeVault","stateMutability":"nonpayable","inputs":[{"name":"employee","type":"address"},{"name":"volatileToken","type":"address"},{"name":"stableToken","type":"address"},{"name":"riskLevel","type":"uint8"},{"name":"volatilityThreshold","type":"uint256"}],"outputs":[]}
]`

const FaucetABI = `[
 {"type":"function","name":"claimTokens","stateMutability":"nonpayable","inputs":[],"outputs":[]},
 {"type":"function","name":"canClaim","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"canClaim","type":"bool"},{"name":"timeUntilNextClaim","type":"uint256"}]},
 {"type":"function","name":"getFaucetBalance","stateMutability":"view","inputs":[],"outputs":[{"name":"stableBalance","type":"uint256"},{"name":"volatileBalance","type":"uint256"}]},
 {"type":"function","name":"stableAmount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"volatileAmount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"cooldownPeriod","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"lastClaimTime","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const ERC20ABI = `[
 {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
 {"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
 {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
 {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
 {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
 {"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`
